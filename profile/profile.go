// Copyright 2016, Timothy Bogdala <tdb@animal-machine.com>
// See the LICENSE file for more details.

// Package profile describes a named retarget job as JSON, the same
// loading shape the teacher used for component definitions
// (component.Component / component.ComponentManager): a small struct
// decoded from a file that resolves and caches the assets it references,
// plus a manager that caches decoded profiles by name. Here the "assets" are gombz-encoded poses and
// animations rather than meshes and textures.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tbogdala/groggy"

	"github.com/tbogdala/retarget/rig"
	"github.com/tbogdala/retarget/rigasset"
)

// Profile is the JSON-decoded description of a single retarget job:
// which source bind pose and animation to transfer onto which target
// bind pose.
type Profile struct {
	// Name identifies the profile for logging and for Manager's cache.
	Name string

	// SourcePoseFile is a gombz-encoded asset path, relative to the
	// profile file, holding the source skeleton's bind pose.
	SourcePoseFile string

	// SourceAnimationFile is a gombz-encoded asset path holding the
	// source skeleton's animation. If empty, SourcePoseFile is assumed
	// to carry its own animation (as FromGombz returns both from one
	// asset) and is used for both.
	SourceAnimationFile string

	// TargetPoseFile is a gombz-encoded asset path holding the target
	// skeleton's bind pose.
	TargetPoseFile string

	// Properties is a map for client code's custom metadata, same role
	// as Component.Properties.
	Properties map[string]string

	// profileDirPath is the directory the profile file was loaded from,
	// used to resolve the *File paths above.
	profileDirPath string

	// cached resolved assets, populated lazily by Resolve.
	sourcePose      *rig.Pose
	sourceAnimation *rig.Animation
	targetPose      *rig.Pose
}

// fullPath joins the profile's directory with a path named inside it.
func (p *Profile) fullPath(relative string) string {
	return filepath.Join(p.profileDirPath, relative)
}

// Resolve loads the three referenced assets and caches them on the
// Profile, so once they are loaded later calls decode no file again.
// When SourceAnimationFile is empty, SourcePoseFile is decoded twice on
// the first call: once for the pose and once for the animation.
func (p *Profile) Resolve() (sourcePose rig.Pose, sourceAnimation rig.Animation, targetPose rig.Pose, err error) {
	if p.sourcePose == nil || p.sourceAnimation == nil {
		animFile := p.SourceAnimationFile
		if animFile == "" {
			animFile = p.SourcePoseFile
		}

		pose, _, err := rigasset.Load(p.fullPath(p.SourcePoseFile))
		if err != nil {
			return rig.Pose{}, rig.Animation{}, rig.Pose{}, fmt.Errorf("profile %q: source pose: %w", p.Name, err)
		}
		_, animation, err := rigasset.Load(p.fullPath(animFile))
		if err != nil {
			return rig.Pose{}, rig.Animation{}, rig.Pose{}, fmt.Errorf("profile %q: source animation: %w", p.Name, err)
		}

		p.sourcePose = &pose
		p.sourceAnimation = &animation
	}

	if p.targetPose == nil {
		pose, _, err := rigasset.Load(p.fullPath(p.TargetPoseFile))
		if err != nil {
			return rig.Pose{}, rig.Animation{}, rig.Pose{}, fmt.Errorf("profile %q: target pose: %w", p.Name, err)
		}
		p.targetPose = &pose
	}

	return *p.sourcePose, *p.sourceAnimation, *p.targetPose, nil
}

// Manager caches loaded profiles by name, mirroring
// component.ComponentManager's storage map.
type Manager struct {
	storage map[string]*Profile
}

// NewManager creates an empty profile manager.
func NewManager() *Manager {
	return &Manager{storage: make(map[string]*Profile)}
}

// Get returns a profile from storage that matches the name specified,
// and whether it was found.
func (m *Manager) Get(name string) (*Profile, bool) {
	p, ok := m.storage[name]
	return p, ok
}

// LoadFromFile loads a profile from a JSON file and stores it under its
// own Name field. Returns the cached profile immediately if one of the
// same name is already loaded.
func (m *Manager) LoadFromFile(filename string) (*Profile, error) {
	profileDirPath, _ := filepath.Split(filename)

	jsonBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("profile: failed to read %q: %w", filename, err)
	}

	return m.LoadFromBytes(jsonBytes, profileDirPath)
}

// LoadFromBytes decodes a profile from a JSON byte slice and stores it
// under its Name field. profileDirPath aids resolving the asset paths
// named inside the profile.
func (m *Manager) LoadFromBytes(jsonBytes []byte, profileDirPath string) (*Profile, error) {
	p := new(Profile)
	if err := json.Unmarshal(jsonBytes, p); err != nil {
		return nil, fmt.Errorf("profile: failed to decode JSON: %w", err)
	}

	if existing, ok := m.storage[p.Name]; ok {
		groggy.Logsf("DEBUG", "profile: %q already loaded, returning cached copy", p.Name)
		return existing, nil
	}

	p.profileDirPath = profileDirPath
	m.storage[p.Name] = p

	groggy.Logsf("DEBUG", "profile %q loaded", p.Name)
	return p, nil
}

// Names returns every profile name currently in storage.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.storage))
	for name := range m.storage {
		names = append(names, name)
	}
	return names
}
