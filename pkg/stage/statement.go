// SPDX-License-Identifier: Apache-2.0

// Package stage implements the staging executor (C3): applying a set of DDL
// statements extracted from source control files to a sacrificial database
// in dependency order, self-healing the order when PostgreSQL rejects a
// statement because something it references does not exist yet.
package stage

import "github.com/ClasicRando/pgdiff/pkg/catalog"

// Statement is one DDL statement pulled from a source control file, tagged
// with the catalog object it creates and the objects it is already known to
// depend on. Dependencies grows as apply failures reveal references the
// extractor missed.
type Statement struct {
	Text         string
	Object       catalog.QualifiedName
	Dependencies []catalog.QualifiedName
}

// HasDependenciesMet reports whether every dependency this statement
// declares is already present in completed.
func (s *Statement) HasDependenciesMet(completed map[string]bool) bool {
	for _, dep := range s.Dependencies {
		if !completed[dep.String()] {
			return false
		}
	}
	return true
}

// DependsOn reports whether object is one of this statement's declared
// dependencies.
func (s *Statement) DependsOn(object catalog.QualifiedName) bool {
	for _, dep := range s.Dependencies {
		if dep == object {
			return true
		}
	}
	return false
}
