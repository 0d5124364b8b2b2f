package main

import (
	"context"
	"testing"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/robot"
	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/teleop"
)

func TestOpenShooter_LightOnAtStart(t *testing.T) {
	cfg := robot.DefaultConfig()
	backend, ctrl, err := openShooter(context.Background(), cfg, 50, teleop.NewLog(32))
	if err != nil {
		t.Fatalf("openShooter() error = %v", err)
	}
	defer backend.Close()
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Start(ctx) }()
	s := <-ctrl.States()
	cancel()
	<-done

	if s.Status.Light != mechanism.RelayForward {
		t.Errorf("Light after the first tick = %s, want Forward", s.Status.Light)
	}
	if got := backend.Sim.State().CameraLight; got != mechanism.RelayForward {
		t.Errorf("sim camera light = %s, want Forward", got)
	}

	m := initialRunModel(ctrl, cfg, backend.Sim)
	if !m.light {
		t.Error("run model starts with the light off")
	}
	if cmd, _ := m.keyCommand("l"); cmd.Kind != teleop.CmdLight || cmd.On {
		t.Errorf("first 'l' = %s, want light off", cmd)
	}
}

func TestOpenShooter_Error(t *testing.T) {
	cfg := robot.DefaultConfig()
	cfg.Backend = "can"
	backend, ctrl, err := openShooter(context.Background(), cfg, 50, teleop.NewLog(32))
	if err == nil {
		t.Fatal("openShooter() with an unknown backend succeeded")
	}
	if backend != nil || ctrl != nil {
		t.Errorf("openShooter() = %v, %v on error, want nil", backend, ctrl)
	}
}

func TestStartupCommands(t *testing.T) {
	cmds := startupCommands()
	if len(cmds) != 1 || cmds[0].Kind != teleop.CmdLight || !cmds[0].On {
		t.Errorf("startupCommands() = %v, want [light on]", cmds)
	}
}
