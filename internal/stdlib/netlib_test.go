package stdlib

import (
	"testing"
	"time"

	"saurus/internal/errors"
	"saurus/internal/vm"
)

func TestWSDialerHandshakeTimeout(t *testing.T) {
	if wsDialer.HandshakeTimeout != 10*time.Second {
		t.Fatalf("handshake timeout: got %v want 10s", wsDialer.HandshakeTimeout)
	}
}

func TestWSSendRejectsNonConnectionHandle(t *testing.T) {
	s := vm.NewState()
	InstallNet(s)

	notAConn := s.NewNativeData("not a websocket")
	_, err := callNative(s, "ws-send", notAConn, s.NewString("hi"))
	if err == nil {
		t.Fatal("expected a type error")
	}
	if se, ok := err.(*errors.SaurusError); !ok || se.Kind != errors.TypeError {
		t.Fatalf("expected TypeError, got %v", err)
	}
}

func TestWSConnectUnreachableRaisesResourceError(t *testing.T) {
	s := vm.NewState()
	InstallNet(s)

	_, err := callNative(s, "ws-connect", s.NewString("ws://127.0.0.1:1/nonexistent"))
	if err == nil {
		t.Fatal("expected a connection error")
	}
	if se, ok := err.(*errors.SaurusError); !ok || se.Kind != errors.ResourceError {
		t.Fatalf("expected ResourceError, got %v", err)
	}
}
