package stdlib

import (
	"saurus/internal/errors"
	"saurus/internal/value"
	"saurus/internal/vm"
)

// InstallMap registers maplib.go's map family: build, length, get,
// set, insert, remove, has.
func InstallMap(s *vm.State) {
	s.SetGlobal("map", s.NewNative("map", -1, nativeMap), true)
	s.SetGlobal("map-length", s.NewNative("map-length", 1, nativeMapLength), true)
	s.SetGlobal("map-get", s.NewNative("map-get", 2, nativeMapGet), true)
	s.SetGlobal("map-set", s.NewNative("map-set", 3, nativeMapSet), true)
	s.SetGlobal("map-insert", s.NewNative("map-insert", 3, nativeMapInsert), true)
	s.SetGlobal("map-remove", s.NewNative("map-remove", 2, nativeMapRemove), true)
	s.SetGlobal("map-has", s.NewNative("map-has", 2, nativeMapHas), true)
}

// nativeMap builds a map from the last n values on the stack,
// interpreted as n/2 key/value pairs; n must be even.
func nativeMap(s *vm.State, n int) int {
	if n%2 != 0 {
		s.Error(errors.ArityError, "map: expected an even number of key/value arguments, got %d", n)
	}
	base := s.Top() - n
	m := s.NewMap()
	acc := s.MapOf(m)
	for i := 0; i+1 < n; i += 2 {
		acc = acc.Insert(s.Arg(base, i), s.Arg(base, i+1))
	}
	s.Push(s.NewMapFrom(acc))
	return 1
}

func nativeMapLength(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	s.CheckKind(v, value.Map, "map-length")
	s.Push(s.NewNumber(float64(s.MapOf(v).Length())))
	return 1
}

func nativeMapGet(s *vm.State, n int) int {
	base := s.Top() - n
	v := s.Arg(base, 0)
	s.CheckKind(v, value.Map, "map-get")
	key := s.Arg(base, 1)
	found := s.MapOf(v).Find(key)
	if found.IsInvalid() {
		s.Error(errors.LookupError, "map-get: key not found")
	}
	s.Push(found)
	return 1
}

// nativeMapSet overwrites freely, creating the key if absent.
func nativeMapSet(s *vm.State, n int) int {
	base := s.Top() - n
	v := s.Arg(base, 0)
	s.CheckKind(v, value.Map, "map-set")
	key := s.Arg(base, 1)
	val := s.Arg(base, 2)
	s.Push(s.NewMapFrom(s.MapOf(v).Insert(key, val)))
	return 1
}

// nativeMapInsert is map-set's stricter sibling: it errors if the key
// already exists instead of silently overwriting it.
func nativeMapInsert(s *vm.State, n int) int {
	base := s.Top() - n
	v := s.Arg(base, 0)
	s.CheckKind(v, value.Map, "map-insert")
	key := s.Arg(base, 1)
	val := s.Arg(base, 2)
	m := s.MapOf(v)
	if m.Has(key) {
		s.Error(errors.LookupError, "Duplicated key in map!")
	}
	s.Push(s.NewMapFrom(m.Insert(key, val)))
	return 1
}

func nativeMapRemove(s *vm.State, n int) int {
	base := s.Top() - n
	v := s.Arg(base, 0)
	s.CheckKind(v, value.Map, "map-remove")
	key := s.Arg(base, 1)
	m := s.MapOf(v)
	if !m.Has(key) {
		s.Error(errors.LookupError, "Key does not exist in map!")
	}
	s.Push(s.NewMapFrom(m.Without(key)))
	return 1
}

func nativeMapHas(s *vm.State, n int) int {
	base := s.Top() - n
	v := s.Arg(base, 0)
	s.CheckKind(v, value.Map, "map-has")
	key := s.Arg(base, 1)
	s.Push(s.NewBool(s.MapOf(v).Has(key)))
	return 1
}
