package midiwindows

import "testing"

func TestOpenGate(t *testing.T) {
	type step struct {
		notify       bool // notify() when true, finish() otherwise
		wantRepeated bool
		wantFire     bool
	}
	tests := []struct {
		name  string
		steps []step
	}{
		{"notification during open", []step{{notify: true}, {wantFire: true}}},
		{"notification after open", []step{{}, {notify: true, wantFire: true}}},
		{"repeated notification", []step{{notify: true}, {wantFire: true}, {notify: true, wantRepeated: true}}},
		{"open flow never finishes", []step{{notify: true}, {notify: true, wantRepeated: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g openGate
			for i, s := range tt.steps {
				if s.notify {
					repeated, fire := g.notify()
					if repeated != s.wantRepeated || fire != s.wantFire {
						t.Errorf("step %d notify() = %t, %t, want %t, %t", i, repeated, fire, s.wantRepeated, s.wantFire)
					}
					continue
				}
				if fire := g.finish(); fire != s.wantFire {
					t.Errorf("step %d finish() = %t, want %t", i, fire, s.wantFire)
				}
			}
		})
	}
}
