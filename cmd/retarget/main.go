// Copyright 2016, Timothy Bogdala <tdb@animal-machine.com>
// See the LICENSE file for more details.

/*

retarget is a headless tool that retargets one or more profiles (see
package profile) and writes each result as a gombz-encoded asset. It is
the non-GPU analogue of the interactive demo the core spec places out of
scope: where the demo drew several retargeted characters to a window,
this tool retargets the same batch of characters and writes the results
to disk.

*/

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/tbogdala/groggy"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"golang.org/x/sync/errgroup"

	"github.com/tbogdala/retarget/profile"
	"github.com/tbogdala/retarget/retarget"
	"github.com/tbogdala/retarget/rigasset"
)

// command line flags
var (
	versionString  = "v0.1.0 DEVELOPMENT"
	appFlags       = kingpin.New("retarget", "batch skeletal-animation retargeting tool.")
	flagProfileDir = appFlags.Flag("profiles", "directory of *.json retarget profiles to process").Default(".").String()
	flagOutDir     = appFlags.Flag("out", "directory to write retargeted *.gombz assets to").Default(".").String()
	flagParallel   = appFlags.Flag("parallel", "number of profiles to retarget concurrently").Default("4").Int()
)

func main() {
	appFlags.Version(versionString)
	kingpin.MustParse(appFlags.Parse(os.Args[1:]))

	groggy.Register("DEBUG", groggy.DefaultSyncHandler)
	groggy.Register("ERROR", groggy.DefaultSyncHandler)
	groggy.Register("WARN", groggy.DefaultSyncHandler)

	profileFiles, err := filepath.Glob(filepath.Join(*flagProfileDir, "*.json"))
	if err != nil {
		groggy.Logsf("ERROR", "failed to glob profile directory %q: %v", *flagProfileDir, err)
		os.Exit(1)
	}

	mgr := profile.NewManager()
	var profiles []*profile.Profile
	for _, filename := range profileFiles {
		p, err := mgr.LoadFromFile(filename)
		if err != nil {
			groggy.Logsf("ERROR", "failed to load profile %q: %v", filename, err)
			os.Exit(1)
		}
		profiles = append(profiles, p)
	}

	if err := runBatch(profiles, *flagOutDir, *flagParallel); err != nil {
		groggy.Logsf("ERROR", "%v", err)
		os.Exit(1)
	}
}

// runBatch retargets every profile in profiles concurrently, bounded by
// parallel simultaneous jobs. Each profile retargets independently (spec
// §5: "no internal shared mutable state exists"), so bounding concurrency
// here is purely a host-side resource control, not something the core
// packages need to know about.
func runBatch(profiles []*profile.Profile, outDir string, parallel int) error {
	group, _ := errgroup.WithContext(context.Background())
	group.SetLimit(parallel)

	for _, p := range profiles {
		p := p
		group.Go(func() error {
			return retargetOne(p, outDir)
		})
	}

	return group.Wait()
}

func retargetOne(p *profile.Profile, outDir string) error {
	sourcePose, sourceAnimation, targetPose, err := p.Resolve()
	if err != nil {
		return err
	}

	result, err := retarget.Retarget(sourceAnimation, sourcePose, targetPose)
	if err != nil {
		groggy.Logsf("ERROR", "profile %q: retarget failed: %v", p.Name, err)
		return err
	}

	outFile := filepath.Join(outDir, sanitizeFilename(p.Name)+".gombz")
	if err := rigasset.Save(outFile, result.BindPose, result.Animation); err != nil {
		return err
	}

	groggy.Logsf("DEBUG", "profile %q: wrote %q", p.Name, outFile)
	return nil
}

// sanitizeFilename replaces path separators in a profile name so it's
// always safe to use as a single path component.
func sanitizeFilename(name string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(name)
}
