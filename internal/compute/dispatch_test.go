package compute_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/cwbudde/clfilter/internal/compute"
	"github.com/cwbudde/clfilter/internal/compute/computetest"
)

func TestRoundUp(t *testing.T) {
	tests := []struct {
		group, extent, want int
	}{
		{16, 512, 512},
		{16, 500, 512},
		{16, 1, 16},
		{16, 17, 32},
		{8, 8, 8},
		{1, 13, 13},
	}
	for _, tt := range tests {
		if got := compute.RoundUp(tt.group, tt.extent); got != tt.want {
			t.Errorf("RoundUp(%d, %d) = %d, want %d", tt.group, tt.extent, got, tt.want)
		}
	}

	for _, g := range []int{1, 2, 7, 16, 32} {
		for n := 1; n <= 200; n++ {
			r := compute.RoundUp(g, n)
			if r%g != 0 || r < n || r >= n+g {
				t.Fatalf("RoundUp(%d, %d) = %d violates the rounding bounds", g, n, r)
			}
		}
	}
}

func TestLaunchGeometry(t *testing.T) {
	geom, err := compute.LaunchGeometry(500, 300, compute.DefaultTile)
	if err != nil {
		t.Fatalf("LaunchGeometry failed: %v", err)
	}
	want := compute.NDRange{Global: [2]int{512, 304}, Local: [2]int{16, 16}}
	if geom != want {
		t.Errorf("LaunchGeometry = %+v, want %+v", geom, want)
	}

	for _, bad := range []struct{ w, h, tile int }{{0, 10, 16}, {10, -1, 16}, {10, 10, 0}} {
		if _, err := compute.LaunchGeometry(bad.w, bad.h, bad.tile); !errors.Is(err, compute.ErrExecution) {
			t.Errorf("LaunchGeometry(%d, %d, %d): expected ErrExecution, got %v", bad.w, bad.h, bad.tile, err)
		}
	}
}

// filterFixture allocates everything a filter dispatch binds.
func filterFixture(t *testing.T, drv *computetest.Driver) (*compute.Session, compute.Kernel, compute.FilterArgs) {
	t.Helper()
	sess := newSession(t, drv)
	t.Cleanup(sess.Close)

	prog, err := sess.Compile("__kernel void gauss_filter4() {}", "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(prog.Release)

	in, err := sess.CreateInputBuffer(make([]byte, compute.ImageByteSize(3, 2)), 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	out, err := sess.CreateOutputBuffer(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	kernel, err := prog.Kernel("gauss_filter4")
	if err != nil {
		t.Fatal(err)
	}
	coeffs, err := sess.CreateCoefficientBuffer([]float32{0.5, 1, 0.5})
	if err != nil {
		t.Fatal(err)
	}

	return sess, kernel, compute.FilterArgs{
		Input:        in,
		Output:       out,
		Radius:       1,
		Sigma:        10,
		Norm:         0.04,
		Coefficients: coeffs,
	}
}

func TestBindArgsOrder(t *testing.T) {
	drv := computetest.New()
	_, kernel, args := filterFixture(t, drv)

	if err := compute.BindArgs(kernel, args.Ordered()); err != nil {
		t.Fatalf("BindArgs failed: %v", err)
	}

	bound := drv.CreatedKernels[0].Bound
	if len(bound) != 8 {
		t.Fatalf("Expected 8 bound arguments, got %d", len(bound))
	}
	for i, b := range bound {
		if b.Index != i {
			t.Errorf("Argument %d bound at index %d", i, b.Index)
		}
	}

	wantValues := []any{drv.Buffers[0], drv.Buffers[1], int32(3), int32(2), int32(1), float32(10), float32(0.04), drv.Buffers[2]}
	for i, want := range wantValues {
		if bound[i].Value != want {
			t.Errorf("Argument %d = %v, want %v", i, bound[i].Value, want)
		}
	}

	var kinds []compute.ArgKind
	var names []string
	for _, a := range args.Ordered() {
		kinds = append(kinds, a.Kind)
		names = append(names, a.Name)
	}
	if !slices.Equal(kinds, compute.FilterSignature) {
		t.Errorf("Argument kinds %v do not match signature %v", kinds, compute.FilterSignature)
	}
	wantNames := []string{"input", "output", "width", "height", "radius", "sigma", "norm", "coefficients"}
	if !slices.Equal(names, wantNames) {
		t.Errorf("Argument names = %v, want %v", names, wantNames)
	}
}

func TestBindArgsKindMismatch(t *testing.T) {
	drv := computetest.New()
	_, kernel, args := filterFixture(t, drv)

	ordered := args.Ordered()
	ordered[4].Value = 1 // int, not int32

	err := compute.BindArgs(kernel, ordered)
	var bindErr *compute.ArgumentBindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("Expected *ArgumentBindError, got %v", err)
	}
	if bindErr.Index != 4 || bindErr.Name != "radius" {
		t.Errorf("Expected argument 4 (radius), got %d (%s)", bindErr.Index, bindErr.Name)
	}
	if got := len(drv.CreatedKernels[0].Bound); got != 4 {
		t.Errorf("Expected binding to stop after 4 arguments, got %d", got)
	}
}

func TestBindArgsMissingBuffer(t *testing.T) {
	drv := computetest.New()
	_, kernel, args := filterFixture(t, drv)
	args.Coefficients = nil

	err := compute.BindArgs(kernel, args.Ordered())
	var bindErr *compute.ArgumentBindError
	if !errors.As(err, &bindErr) || bindErr.Index != 7 {
		t.Fatalf("Expected bind error at argument 7, got %v", err)
	}
	if !errors.Is(err, compute.ErrArgumentBind) {
		t.Error("Expected ErrArgumentBind category")
	}
}

func TestDispatchAndProfile(t *testing.T) {
	drv := computetest.New()
	drv.ElapsedNanos = 1_500_000
	sess, kernel, args := filterFixture(t, drv)

	if err := compute.BindArgs(kernel, args.Ordered()); err != nil {
		t.Fatal(err)
	}
	geom, err := compute.LaunchGeometry(3, 2, compute.DefaultTile)
	if err != nil {
		t.Fatal(err)
	}

	ev, err := sess.Dispatch(kernel, geom)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	defer ev.Release()

	if len(drv.Dispatches) != 1 || drv.Dispatches[0] != geom {
		t.Errorf("Expected one dispatch over %+v, got %+v", geom, drv.Dispatches)
	}

	prof, err := compute.WaitForProfile(ev)
	if err != nil {
		t.Fatalf("WaitForProfile failed: %v", err)
	}
	if prof.End < prof.Start {
		t.Errorf("End %d before start %d", prof.End, prof.Start)
	}
	if prof.Elapsed() != 1_500_000 {
		t.Errorf("Expected 1.5ms, got %v", prof.Elapsed())
	}
}

func TestDispatchFailure(t *testing.T) {
	drv := computetest.New()
	drv.FailEnqueue = true
	sess, kernel, args := filterFixture(t, drv)

	if err := compute.BindArgs(kernel, args.Ordered()); err != nil {
		t.Fatal(err)
	}
	geom, _ := compute.LaunchGeometry(3, 2, 16)

	_, err := sess.Dispatch(kernel, geom)
	if !errors.Is(err, compute.ErrExecution) {
		t.Fatalf("Expected ErrExecution, got %v", err)
	}
	var statusErr *compute.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != compute.StatusOutOfResources {
		t.Errorf("Expected CL_OUT_OF_RESOURCES in chain, got %v", err)
	}
}

func TestDispatchUniformInput(t *testing.T) {
	drv := computetest.New()
	sess := newSession(t, drv)
	defer sess.Close()

	prog, err := sess.Compile("__kernel void gauss_filter4() {}", "")
	if err != nil {
		t.Fatal(err)
	}
	defer prog.Release()

	const w, h = 7, 5
	pix := make([]byte, compute.ImageByteSize(w, h))
	for i := range pix {
		pix[i] = 77
	}
	in, _ := sess.CreateInputBuffer(pix, w, h)
	out, _ := sess.CreateOutputBuffer(w, h)
	kernel, err := prog.Kernel("gauss_filter4")
	if err != nil {
		t.Fatal(err)
	}
	coeffs, _ := sess.CreateCoefficientBuffer([]float32{0.6, 0.9, 1, 0.9, 0.6})

	args := compute.FilterArgs{Input: in, Output: out, Radius: 2, Sigma: 3, Norm: 0.13, Coefficients: coeffs}
	if err := compute.BindArgs(kernel, args.Ordered()); err != nil {
		t.Fatal(err)
	}
	geom, _ := compute.LaunchGeometry(w, h, 4)
	ev, err := sess.Dispatch(kernel, geom)
	if err != nil {
		t.Fatal(err)
	}
	defer ev.Release()
	if _, err := compute.WaitForProfile(ev); err != nil {
		t.Fatal(err)
	}

	got, err := sess.Readback(out)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != 77 {
			t.Fatalf("Byte %d = %d, want 77", i, v)
		}
	}
}
