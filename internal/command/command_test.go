package command

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCommand struct {
	def  Definition
	sent []string
}

func (f *fakeCommand) Definition() Definition { return f.def }

type fakeExecutable struct{ fakeCommand }

func (f *fakeExecutable) Send(_ context.Context, arg string) error {
	f.sent = append(f.sent, arg)
	return nil
}

type fakePull struct{ fakeCommand }

func (f *fakePull) Read(_ context.Context, s Sensor) (string, error) {
	return s.Coerce("1"), nil
}

type fakePush struct{ fakeCommand }

func (f *fakePush) Start(context.Context, Sensor, Listener) error { return nil }
func (f *fakePush) Stop(Sensor) error                             { return nil }

func TestIsSensorUpdate(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want bool
	}{
		{"plain", &fakeCommand{}, false},
		{"executable only", &fakeExecutable{}, false},
		{"pull", &fakePull{}, true},
		{"push", &fakePush{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSensorUpdate(tt.cmd); got != tt.want {
				t.Errorf("IsSensorUpdate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"500", 500 * time.Millisecond},
		{"2s", 2 * time.Second},
		{"-1", 0},
		{"0", 0},
		{"soon", 0},
	}

	for _, tt := range tests {
		if got := ParseInterval(tt.in); got != tt.want {
			t.Errorf("ParseInterval(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProtocolBuilder(t *testing.T) {
	pb := NewProtocolBuilder()
	pb.Register("Virtual", BuilderFunc(func(def Definition) (Command, error) {
		return &fakePull{fakeCommand{def: def}}, nil
	}))
	pb.Register("broken", BuilderFunc(func(Definition) (Command, error) {
		return nil, ErrInvalidDefinition
	}))

	t.Run("empty protocol defaults to virtual", func(t *testing.T) {
		cmd, err := pb.Build(Definition{ID: 1})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if cmd.Definition().ID != 1 {
			t.Errorf("Definition().ID = %d, want 1", cmd.Definition().ID)
		}
	})

	t.Run("protocol is case-insensitive", func(t *testing.T) {
		if _, err := pb.Build(Definition{ID: 2, Protocol: "VIRTUAL"}); err != nil {
			t.Fatalf("Build() error = %v", err)
		}
	})

	t.Run("unknown protocol", func(t *testing.T) {
		_, err := pb.Build(Definition{ID: 3, Protocol: "velbus"})
		if !errors.Is(err, ErrUnsupportedProtocol) {
			t.Errorf("Build() error = %v, want ErrUnsupportedProtocol", err)
		}
	})

	t.Run("builder error is wrapped", func(t *testing.T) {
		_, err := pb.Build(Definition{ID: 4, Protocol: "broken"})
		if !errors.Is(err, ErrInvalidDefinition) {
			t.Errorf("Build() error = %v, want ErrInvalidDefinition", err)
		}
	})

	if got := len(pb.Protocols()); got != 2 {
		t.Errorf("Protocols() len = %d, want 2", got)
	}
}

func TestCommands(t *testing.T) {
	exec := &fakeExecutable{fakeCommand{def: Definition{ID: 10}}}
	builder := BuilderFunc(func(def Definition) (Command, error) {
		switch def.ID {
		case 10:
			return exec, nil
		default:
			return &fakePull{fakeCommand{def: def}}, nil
		}
	})

	cmds, err := NewCommands([]Definition{{ID: 20}, {ID: 10}}, builder)
	if err != nil {
		t.Fatalf("NewCommands() error = %v", err)
	}

	if cmds.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cmds.Len())
	}
	if ids := cmds.IDs(); ids[0] != 10 || ids[1] != 20 {
		t.Errorf("IDs() = %v, want [10 20]", ids)
	}
	if _, ok := cmds.Get(20); !ok {
		t.Error("Get(20) not found")
	}

	if err := cmds.Execute(context.Background(), 10, "on"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(exec.sent) != 1 || exec.sent[0] != "on" {
		t.Errorf("sent = %v, want [on]", exec.sent)
	}

	if err := cmds.Execute(context.Background(), 20, "on"); !errors.Is(err, ErrNotExecutable) {
		t.Errorf("Execute(pull) error = %v, want ErrNotExecutable", err)
	}
	if err := cmds.Execute(context.Background(), 99, "on"); !errors.Is(err, ErrCommandNotFound) {
		t.Errorf("Execute(missing) error = %v, want ErrCommandNotFound", err)
	}
}

func TestNewCommands_Duplicate(t *testing.T) {
	builder := BuilderFunc(func(def Definition) (Command, error) {
		return &fakeCommand{def: def}, nil
	})

	_, err := NewCommands([]Definition{{ID: 1}, {ID: 1}}, builder)
	if !errors.Is(err, ErrDuplicateCommand) {
		t.Errorf("NewCommands() error = %v, want ErrDuplicateCommand", err)
	}
}
