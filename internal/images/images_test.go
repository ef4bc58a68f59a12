package images

import "testing"

func TestSizeForAspectRatio(t *testing.T) {
	cases := map[string]string{
		"16:9":    "1792x1024",
		"4:3":     "1536x1024",
		"1:1":     "1024x1024",
		"unknown": "1024x1024",
	}
	for in, want := range cases {
		if got := sizeForAspectRatio(in); got != want {
			t.Errorf("sizeForAspectRatio(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAltTextFor_Truncates(t *testing.T) {
	long := ""
	for i := 0; i < 200; i++ {
		long += "a"
	}
	got := altTextFor(long)
	if len(got) != 125 {
		t.Errorf("expected truncated alt text of length 125, got %d", len(got))
	}
}

func TestBuildPrompt_VariesByRole(t *testing.T) {
	hero := BuildPrompt("Choosing a CRM", RoleHero)
	mid := BuildPrompt("Choosing a CRM", RoleMid)
	bottom := BuildPrompt("Choosing a CRM", RoleBottom)
	if hero == mid || mid == bottom || hero == bottom {
		t.Error("expected distinct prompts per role")
	}
}

func TestRole_AspectRatio(t *testing.T) {
	if got := RoleHero.AspectRatio("16:9", "4:3", "1:1"); got != "16:9" {
		t.Errorf("RoleHero.AspectRatio() = %q, want 16:9", got)
	}
	if got := RoleBottom.AspectRatio("16:9", "4:3", "1:1"); got != "1:1" {
		t.Errorf("RoleBottom.AspectRatio() = %q, want 1:1", got)
	}
}
