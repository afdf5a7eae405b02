package compute

import (
	"errors"
	"strings"
	"testing"
)

func TestStatusName(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{StatusSuccess, "CL_SUCCESS"},
		{StatusDeviceNotFound, "CL_DEVICE_NOT_FOUND"},
		{StatusBuildProgramFailure, "CL_BUILD_PROGRAM_FAILURE"},
		{StatusInvalidKernelName, "CL_INVALID_KERNEL_NAME"},
		{StatusInvalidWorkGroupSize, "CL_INVALID_WORK_GROUP_SIZE"},
		{StatusPlatformNotFoundKHR, "CL_PLATFORM_NOT_FOUND_KHR"},
		{1, statusUnknownDescription},
		{-9999, statusUnknownDescription},
	}
	for _, tt := range tests {
		if got := StatusName(tt.code); got != tt.want {
			t.Errorf("StatusName(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestStatusNamesUnique(t *testing.T) {
	seen := make(map[string]int)
	for code, name := range statusNames {
		if !strings.HasPrefix(name, "CL_") {
			t.Errorf("Code %d has name %q without CL_ prefix", code, name)
		}
		if prev, ok := seen[name]; ok {
			t.Errorf("Name %q used by codes %d and %d", name, prev, code)
		}
		seen[name] = code
	}
}

func TestStatusErrorWrapping(t *testing.T) {
	cause := errors.New("driver said no")
	err := &StatusError{Op: "clCreateBuffer", Code: StatusMemAllocationFailure, Err: cause}

	if got := err.Error(); got != "clCreateBuffer: CL_MEM_OBJECT_ALLOCATION_FAILURE (-4)" {
		t.Errorf("Unexpected message %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected StatusError to unwrap to its cause")
	}
}

func TestTypedErrorCategories(t *testing.T) {
	buildErr := &BuildError{Status: StatusBuildProgramFailure, Log: "log"}
	if !errors.Is(buildErr, ErrBuild) || errors.Is(buildErr, ErrIO) {
		t.Error("BuildError must match ErrBuild only")
	}

	cause := NewStatusError("clSetKernelArg", StatusInvalidArgSize)
	bindErr := &ArgumentBindError{Index: 2, Name: "width", Err: cause}
	if !errors.Is(bindErr, ErrArgumentBind) {
		t.Error("ArgumentBindError must match ErrArgumentBind")
	}
	var statusErr *StatusError
	if !errors.As(bindErr, &statusErr) || statusErr.Code != StatusInvalidArgSize {
		t.Error("ArgumentBindError must expose the driver status")
	}
	if !strings.Contains(bindErr.Error(), "argument 2 (width)") {
		t.Errorf("Unexpected message %q", bindErr.Error())
	}
}
