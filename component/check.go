package component

import "context"

// Check is a component with no lifecycle of its own, only health and a
// description. It fits clients of remote services that need no connection
// setup but whose availability matters to readiness.
type Check struct {
	name  string
	desc  Description
	check func(ctx context.Context) Health
	stop  func(ctx context.Context) error
}

var (
	_ Component   = (*Check)(nil)
	_ Describable = (*Check)(nil)
)

// NewCheck returns a Check named name. check reports health; a nil check is
// always healthy.
func NewCheck(name string, desc Description, check func(ctx context.Context) Health) *Check {
	return &Check{name: name, desc: desc, check: check}
}

// OnStop sets a function run when the component stops.
func (c *Check) OnStop(fn func(ctx context.Context) error) *Check {
	c.stop = fn
	return c
}

func (c *Check) Name() string { return c.name }

func (c *Check) Start(context.Context) error { return nil }

func (c *Check) Stop(ctx context.Context) error {
	if c.stop == nil {
		return nil
	}
	return c.stop(ctx)
}

func (c *Check) Health(ctx context.Context) Health {
	if c.check == nil {
		return Health{Name: c.name, Status: StatusHealthy}
	}
	h := c.check(ctx)
	if h.Name == "" {
		h.Name = c.name
	}
	return h
}

func (c *Check) Describe() Description {
	d := c.desc
	if d.Name == "" {
		d.Name = c.name
	}
	return d
}
