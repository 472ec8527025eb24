package core

import (
	"io/ioutil"
	"os"
	"path"
	"testing"
)

func TestStopSignal(t *testing.T) {
	dir, err := ioutil.TempDir("", "stop")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	stopFile := path.Join(dir, "stop")
	s := NewStopSignal(stopFile)
	if s.Check() {
		t.Fatal("Signal fired without a stop file")
	}

	if err := ioutil.WriteFile(stopFile, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if !s.Check() {
		t.Fatal("Expected the stop file to fire the signal")
	}
	if _, err := os.Stat(stopFile); !os.IsNotExist(err) {
		t.Error("Expected the stop file to be consumed")
	}
	if !s.Check() {
		t.Error("Expected the signal to stay fired")
	}
	select {
	case <-s.Done():
	default:
		t.Error("Expected Done to be closed")
	}
}

func TestStopSignal_Trigger(t *testing.T) {
	s := NewStopSignal("")
	if s.Check() {
		t.Fatal("Signal fired without a trigger")
	}
	s.Trigger()
	s.Trigger()
	if !s.Check() {
		t.Error("Expected the signal to fire")
	}
}
