// Package deckpreset loads and saves named deck layouts as JSON
// snapshots of a resource subtree, so a known-good carrier/labware
// arrangement can be captured once and replayed without re-issuing every
// individual AssignChild call. It deliberately does not model the
// broader resource catalog a full labware database would need; it only
// round-trips whatever res.Resource tree the caller already built.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package deckpreset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"

	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/res"
)

const extension = ".deck.json"

// Save writes root's serialized subtree to dir/name+".deck.json".
func Save(dir, name string, root *res.Resource) error {
	data, err := root.Serialize()
	if err != nil {
		return errs.Wrap(errs.KindProtocolError, "deckpreset: serializing "+name, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.KindUnknown, "deckpreset: creating preset directory", err)
	}
	path := filepath.Join(dir, name+extension)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.KindUnknown, "deckpreset: writing "+path, err)
	}
	return nil
}

// Load reads dir/name+".deck.json" back into a detached resource tree.
// The caller re-parents it onto a live deck with Deck.AssignChild (or
// one AssignChild per top-level child), which re-fires the index
// callbacks the raw JSON round-trip bypasses.
func Load(dir, name string) (*res.Resource, error) {
	path := filepath.Join(dir, name+extension)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindUnknown, "deckpreset: reading "+path, err)
	}
	root, err := res.Deserialize(data)
	if err != nil {
		return nil, errs.Wrap(errs.KindProtocolError, "deckpreset: deserializing "+path, err)
	}
	return root, nil
}

// List returns the preset names found under dir (without the
// ".deck.json" suffix), walked with godirwalk rather than os.ReadDir so
// a preset directory containing broken symlinks or unreadable entries
// doesn't abort the whole listing; godirwalk's callback can choose to
// skip and continue.
func List(dir string) ([]string, error) {
	var names []string
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || !strings.HasSuffix(path, extension) {
				return nil
			}
			base := filepath.Base(path)
			names = append(names, strings.TrimSuffix(base, extension))
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
		Unsorted: false,
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindUnknown, "deckpreset: listing "+dir, err)
	}
	return names, nil
}

// Delete removes a saved preset. It is not an error to delete a preset
// that doesn't exist.
func Delete(dir, name string) error {
	path := filepath.Join(dir, name+extension)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.KindUnknown, "deckpreset: deleting "+path, err)
	}
	return nil
}
