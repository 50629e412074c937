// Package profile persists named configuration snapshots.
//
// Every backend keeps an ordered index of profile names next to one snapshot
// per name. The index is the source of truth for what should exist: mutating
// operations always update it first and the snapshot storage second.
package profile
