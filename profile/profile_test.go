// Copyright 2016, Timothy Bogdala <tdb@animal-machine.com>
// See the LICENSE file for more details.

package profile

import "testing"

func TestLoadFromBytesDecodesFields(t *testing.T) {
	mgr := NewManager()
	json := []byte(`{
		"Name": "hero-to-mannequin",
		"SourcePoseFile": "hero_bind.gombz",
		"SourceAnimationFile": "hero_walk.gombz",
		"TargetPoseFile": "mannequin_bind.gombz",
		"Properties": {"note": "shares the walk cycle"}
	}`)

	p, err := mgr.LoadFromBytes(json, "assets/")
	if err != nil {
		t.Fatal(err)
	}

	if p.Name != "hero-to-mannequin" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.fullPath(p.TargetPoseFile) != "assets/mannequin_bind.gombz" {
		t.Errorf("fullPath = %q", p.fullPath(p.TargetPoseFile))
	}

	cached, ok := mgr.Get("hero-to-mannequin")
	if !ok || cached != p {
		t.Error("expected loaded profile to be retrievable and identical by pointer")
	}
}

func TestLoadFromBytesReturnsCachedCopy(t *testing.T) {
	mgr := NewManager()
	json := []byte(`{"Name": "dup", "SourcePoseFile": "a", "TargetPoseFile": "b"}`)

	first, err := mgr.LoadFromBytes(json, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := mgr.LoadFromBytes(json, "")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("expected the second load of the same name to return the cached profile")
	}
}
