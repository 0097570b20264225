//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/mesh-intelligence/rapport/internal/version"
)

const (
	binGo      = "go"
	binaryName = "rapport"
	binaryDir  = "bin"
	cmdDir     = "./cmd/rapport"
)

// ldflags stamps the version and commit into the binary.
func ldflags() string {
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	v := os.Getenv("RAPPORT_VERSION")
	if v == "" {
		v = version.Version
	}
	pkg := version.ModulePath + "/internal/version"
	return "-X " + pkg + ".Version=" + v + " -X " + pkg + ".CommitHash=" + commit
}

// Build compiles the rapport binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
