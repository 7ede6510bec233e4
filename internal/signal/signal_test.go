package signal

import (
	"reflect"
	"testing"
)

func TestSetNotifiesInOrder(t *testing.T) {
	v := NewValue("/")
	var got []string
	v.Subscribe(func(s string) { got = append(got, "a:"+s) })
	v.Subscribe(func(s string) { got = append(got, "b:"+s) })

	v.Set("/users")
	v.Set("/users")

	want := []string{"a:/users", "b:/users", "a:/users", "b:/users"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if v.Get() != "/users" {
		t.Fatalf("unexpected current value %q", v.Get())
	}
}

func TestCancelStopsNotifications(t *testing.T) {
	v := NewValue(0)
	calls := 0
	cancel := v.Subscribe(func(int) { calls++ })
	v.Set(1)
	cancel()
	cancel()
	v.Set(2)

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
