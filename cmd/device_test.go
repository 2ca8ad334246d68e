package cmd

import (
	"context"
	"testing"
)

func TestLocalDevicePutHasGetDelete(t *testing.T) {
	device, err := NewLocalDevice(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewLocalDevice: %v", err)
	}
	ctx := context.Background()

	if has, _ := device.Has(ctx, 1); has {
		t.Fatalf("new device should not report version 1 as present")
	}

	if err := device.Put(ctx, 1, []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if has, err := device.Has(ctx, 1); err != nil || !has {
		t.Fatalf("Has after Put: has=%v err=%v", has, err)
	}
	data, err := device.Get(ctx, 1)
	if err != nil || string(data) != "payload" {
		t.Fatalf("Get after Put: data=%q err=%v", data, err)
	}

	if err := device.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if has, _ := device.Has(ctx, 1); has {
		t.Fatalf("version 1 should be gone after Delete")
	}
}

func TestLocalDeviceDeleteOfMissingVersionIsNotAnError(t *testing.T) {
	device, err := NewLocalDevice(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewLocalDevice: %v", err)
	}
	if err := device.Delete(context.Background(), 42); err != nil {
		t.Fatalf("deleting an absent version should be a no-op, got %v", err)
	}
}

func TestLocalDeviceListReturnsAscendingOrder(t *testing.T) {
	device, err := NewLocalDevice(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewLocalDevice: %v", err)
	}
	ctx := context.Background()
	for _, v := range []ObjectVersion{5, 1, 3} {
		if err := device.Put(ctx, v, []byte("x")); err != nil {
			t.Fatalf("Put(%d): %v", v, err)
		}
	}

	got, err := device.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []ObjectVersion{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}
}
