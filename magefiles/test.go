//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const postgresDSNEnv = "TEST_POSTGRES_DSN"

// Test groups test targets (all, unit, postgres).
type Test mg.Namespace

// All runs every test. Postgres tests skip unless TEST_POSTGRES_DSN is set.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Unit runs the tests with the Postgres DSN cleared.
func (Test) Unit() error {
	env := map[string]string{postgresDSNEnv: ""}
	return sh.RunWithV(env, binGo, "test", "./...")
}

// Postgres runs the Postgres backend tests. TEST_POSTGRES_DSN must point at
// a disposable database.
func (Test) Postgres() error {
	if os.Getenv(postgresDSNEnv) == "" {
		return fmt.Errorf("%s is not set", postgresDSNEnv)
	}
	return sh.RunV(binGo, "test", "-v", "-count=1", "./internal/postgres/...")
}
