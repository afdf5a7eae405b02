// Package opencl implements the compute driver interfaces with OpenCL.
//
// The real driver is compiled only with the "gpu" build tag and links
// against the system OpenCL ICD loader. Without the tag NewDriver reports
// ErrNotBuilt.
package opencl
