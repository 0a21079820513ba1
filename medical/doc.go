// Package medical holds the structured records exchanged by the pipeline
// stages: the extracted consultation (MedicalInfo) and the generated
// diagnosis (DiagnosisResult).
//
// Model output is untrusted. ParseMedicalInfo decodes and validates a
// candidate record in one step and reports every schema problem it finds
// as a *SchemaError, which callers treat as recoverable.
package medical
