package stdlib

import (
	"time"

	"github.com/gorilla/websocket"

	"saurus/internal/errors"
	"saurus/internal/value"
	"saurus/internal/vm"
)

// InstallNet registers netlib.go's ws-* family, a thin Saurus-value
// wrapper over a *websocket.Conn grounded on websocket.go's
// WebSocketConnect/WebSocketSend/WebSocketClose. The donor's
// background readMessages goroutine and channel are dropped — this
// interpreter has no threading, so ws-recv blocks directly on the
// connection's own ReadMessage instead of draining a channel fed by
// a separate goroutine.
func InstallNet(s *vm.State) {
	s.SetGlobal("ws-connect", s.NewNative("ws-connect", 1, nativeWSConnect), true)
	s.SetGlobal("ws-send", s.NewNative("ws-send", 2, nativeWSSend), true)
	s.SetGlobal("ws-recv", s.NewNative("ws-recv", 1, nativeWSRecv), true)
	s.SetGlobal("ws-close", s.NewNative("ws-close", 1, nativeWSClose), true)
}

var wsDialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}

func nativeWSConnect(s *vm.State, n int) int {
	url := s.CheckString(s.Arg(s.Top()-n, 0), "ws-connect")
	conn, _, err := wsDialer.Dial(url, nil)
	if err != nil {
		s.Error(errors.ResourceError, "ws-connect: %s", err.Error())
	}
	s.Push(s.NewNativeData(conn))
	return 1
}

func checkedWS(s *vm.State, v value.Value, what string) *websocket.Conn {
	s.CheckKind(v, value.NativeData, what)
	conn, ok := s.NativeDataOf(v).(*websocket.Conn)
	if !ok {
		s.Error(errors.TypeError, "%s: not a websocket connection", what)
	}
	return conn
}

func nativeWSSend(s *vm.State, n int) int {
	base := s.Top() - n
	conn := checkedWS(s, s.Arg(base, 0), "ws-send")
	msg := s.CheckString(s.Arg(base, 1), "ws-send")
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		s.Error(errors.ResourceError, "ws-send: %s", err.Error())
	}
	return 0
}

func nativeWSRecv(s *vm.State, n int) int {
	conn := checkedWS(s, s.Arg(s.Top()-n, 0), "ws-recv")
	_, data, err := conn.ReadMessage()
	if err != nil {
		s.Error(errors.ResourceError, "ws-recv: %s", err.Error())
	}
	s.Push(s.NewString(string(data)))
	return 1
}

func nativeWSClose(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	conn := checkedWS(s, v, "ws-close")
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err := conn.Close(); err != nil {
		s.Error(errors.ResourceError, "ws-close: %s", err.Error())
	}
	s.ClearNativeData(v)
	return 0
}
