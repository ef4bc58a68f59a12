package handlers

import "testing"

func TestNewRootCmd_RegistersSubcommands(t *testing.T) {
	root := NewRootCmd()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}

	if !names["generate"] {
		t.Error("expected root command to register generate")
	}
	if !names["watch"] {
		t.Error("expected root command to register watch")
	}
}

func TestNewGenerateCmd_RequiresKeyword(t *testing.T) {
	cmd := NewGenerateCmd()

	flag := cmd.Flags().Lookup("keyword")
	if flag == nil {
		t.Fatal("expected a --keyword flag")
	}

	required := cmd.Flags().Lookup("keyword").Annotations["cobra_annotation_bash_completion_one_required_flag"]
	if len(required) == 0 {
		t.Error("expected --keyword to be marked required")
	}
}

func TestNewGenerateCmd_DefaultsWordCountRange(t *testing.T) {
	cmd := NewGenerateCmd()

	min, err := cmd.Flags().GetInt("word-count-min")
	if err != nil || min != 2500 {
		t.Errorf("expected default word-count-min 2500, got %d (err=%v)", min, err)
	}
	max, err := cmd.Flags().GetInt("word-count-max")
	if err != nil || max != 4000 {
		t.Errorf("expected default word-count-max 4000, got %d (err=%v)", max, err)
	}
}

func TestNewWatchCmd_RequiresKeyword(t *testing.T) {
	cmd := NewWatchCmd()
	if cmd.Flags().Lookup("keyword") == nil {
		t.Fatal("expected a --keyword flag")
	}

	required := cmd.Flags().Lookup("keyword").Annotations["cobra_annotation_bash_completion_one_required_flag"]
	if len(required) == 0 {
		t.Error("expected --keyword to be marked required")
	}
}
