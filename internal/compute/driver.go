package compute

// DeviceType describes the class of a compute device.
type DeviceType string

const (
	DeviceTypeGPU         DeviceType = "GPU"
	DeviceTypeCPU         DeviceType = "CPU"
	DeviceTypeAccelerator DeviceType = "Accelerator"
	DeviceTypeDefault     DeviceType = "Default"
	DeviceTypeAll         DeviceType = "All"
	DeviceTypeUnknown     DeviceType = "Unknown"
)

// AccessMode is the kernel-side access granted to a device buffer.
type AccessMode int

const (
	ReadOnly AccessMode = iota
	WriteOnly
	ReadWrite
)

func (m AccessMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	case ReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// DeviceInfo captures metadata about a compute device.
type DeviceInfo struct {
	Name            string
	Vendor          string
	Version         string
	Type            DeviceType
	MaxComputeUnits int
	ImageSupport    bool
}

// PlatformInfo captures metadata about a platform and, when enumerated, its devices.
type PlatformInfo struct {
	Name    string
	Vendor  string
	Version string
	Devices []DeviceInfo
}

// Driver is the entry point into a compute API implementation.
type Driver interface {
	// Platforms lists the installed platforms in driver order.
	Platforms() ([]Platform, error)
	// CreateContext creates a context for a single device.
	CreateContext(dev Device) (Context, error)
}

// Platform groups the devices exposed by one vendor driver.
type Platform interface {
	Info() PlatformInfo
	// Devices returns the devices of the given type. An empty result with a
	// nil error means the platform has no device of that type.
	Devices(t DeviceType) ([]Device, error)
}

// Device is a single compute device.
type Device interface {
	Info() DeviceInfo
}

// Context owns device memory and programs for one device.
type Context interface {
	// CreateQueue creates an in-order command queue on dev.
	CreateQueue(dev Device, profiling bool) (Queue, error)
	CreateProgram(source string) (Program, error)
	// CreateBuffer allocates len(data) bytes and copies data into the buffer.
	CreateBuffer(mode AccessMode, data []byte) (Buffer, error)
	Release()
}

// Program is device program source that may be built for a device.
type Program interface {
	Build(dev Device, options string) error
	// BuildStatus returns the status code of the last build; zero means success.
	BuildStatus() int
	// BuildLog returns the compiler diagnostics of the last build.
	BuildLog() (string, error)
	CreateKernel(name string) (Kernel, error)
	Release()
}

// Kernel is an entry point of a built program.
type Kernel interface {
	Name() string
	// SetArg binds value to the argument at index. Supported values are
	// Buffer, int32 and float32.
	SetArg(index int, value any) error
	Release()
}

// Buffer is an opaque handle to device-resident memory.
type Buffer interface {
	Size() int
	Release()
}

// Queue is an in-order command queue.
type Queue interface {
	// EnqueueNDRange submits kernel over a work-item grid. local may be nil to
	// let the driver pick the work-group size.
	EnqueueNDRange(k Kernel, global, local []int) (Event, error)
	// ReadBuffer copies len(dst) bytes from b into dst and blocks until done.
	ReadBuffer(b Buffer, dst []byte) error
	Finish() error
	Release()
}

// Event signals completion of one enqueued command.
type Event interface {
	Wait() error
	// Timestamps returns device start and end times in nanoseconds. Only
	// valid after Wait returned.
	Timestamps() (start, end int64, err error)
	Release()
}
