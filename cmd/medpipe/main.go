// Command medpipe serves the medical AI pipeline over HTTP or runs one stage
// from the command line.
package main

func main() {
	Execute()
}
