package environment_test

import (
	"reflect"
	"testing"

	"github.com/ostcar/pgclone/environment"
)

func TestVariableValue(t *testing.T) {
	v := environment.NewVariable("SOME_KEY", "default", "Some description.")

	for _, tt := range []struct {
		name   string
		env    map[string]string
		expect string
	}{
		{"not set", nil, "default"},
		{"empty", map[string]string{"SOME_KEY": ""}, "default"},
		{"set", map[string]string{"SOME_KEY": "value"}, "value"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			lookup := environment.NewForTests(tt.env)

			if got := v.Value(lookup); got != tt.expect {
				t.Errorf("Value() == %q, expected %q", got, tt.expect)
			}
		})
	}
}

func TestForTestsUsed(t *testing.T) {
	lookup := environment.NewForTests(nil)

	environment.NewVariable("B_KEY", "", "").Value(lookup)
	environment.NewVariable("A_KEY", "", "").Value(lookup)
	environment.NewVariable("B_KEY", "", "").Value(lookup)

	expect := []string{"A_KEY", "B_KEY"}
	if got := lookup.Used(); !reflect.DeepEqual(got, expect) {
		t.Errorf("Used() == %v, expected %v", got, expect)
	}
}
