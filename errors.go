// Package forgescan provides the ambient logging and error-taxonomy surface shared by every
// subpackage of the voxel reconstruction engine.
package forgescan

import (
	"errors"
	"fmt"
)

// Unexported sentinels, matchable with errors.Is inside this package only. Each is wrapped by a
// richer struct error carrying the specific fields a caller needs; other packages test the kind
// and recover the fields with errors.As on the struct type.
var (
	errGridProperty   = errors.New("forgescan: grid property mismatch")
	errVoxelOutOfRange = errors.New("forgescan: voxel index out of range")
	errDataVariant    = errors.New("forgescan: unsupported data variant")
	errInvalidMapKey  = errors.New("forgescan: invalid map key")
	errReservedMapKey = errors.New("forgescan: reserved map key")
	errConstructor    = errors.New("forgescan: constructor failed")
)

// GridPropertyError reports that two collaborating objects (a channel, a ground-truth grid, a
// Reconstruction) were bound to Grid Properties that do not match, or that a data vector's
// length does not equal NumVoxels.
type GridPropertyError struct {
	Reason string
	Size   [3]int
	Other  [3]int
}

func (e *GridPropertyError) Error() string {
	return fmt.Sprintf("forgescan: grid property mismatch: %s (size=%v, other=%v)", e.Reason, e.Size, e.Other)
}

func (e *GridPropertyError) Unwrap() error { return errGridProperty }

// NewGridPropertyError builds a GridPropertyError for a given reason.
func NewGridPropertyError(reason string, size, other [3]int) error {
	return &GridPropertyError{Reason: reason, Size: size, Other: other}
}

// VoxelOutOfRangeError reports an index or point-derived index falling outside Size.
type VoxelOutOfRangeError struct {
	Size  [3]int
	Index [3]int
}

func (e *VoxelOutOfRangeError) Error() string {
	return fmt.Sprintf("forgescan: voxel index %v out of range for grid size %v", e.Index, e.Size)
}

func (e *VoxelOutOfRangeError) Unwrap() error { return errVoxelOutOfRange }

// NewVoxelOutOfRangeError builds a VoxelOutOfRangeError.
func NewVoxelOutOfRangeError(size, index [3]int) error {
	return &VoxelOutOfRangeError{Size: size, Index: index}
}

// DataVariantError reports an element-type mismatch at channel construction time, an
// unrecognized element-type tag, or an attempt to use a type-checking mask as a concrete type.
type DataVariantError struct {
	Requested string
	Accepted  string
}

func (e *DataVariantError) Error() string {
	return fmt.Sprintf("forgescan: data variant %q is not one of the accepted types %q", e.Requested, e.Accepted)
}

func (e *DataVariantError) Unwrap() error { return errDataVariant }

// NewDataVariantError builds a DataVariantError.
func NewDataVariantError(requested, accepted string) error {
	return &DataVariantError{Requested: requested, Accepted: accepted}
}

// InvalidMapKeyError reports an empty channel name, a missing name on lookup, or a duplicate
// insertion. Recoverable by the caller.
type InvalidMapKeyError struct {
	Key    string
	Reason string
}

func (e *InvalidMapKeyError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("forgescan: invalid map key: %s", e.Reason)
	}
	return fmt.Sprintf("forgescan: invalid map key %q: %s", e.Key, e.Reason)
}

func (e *InvalidMapKeyError) Unwrap() error { return errInvalidMapKey }

// NewInvalidMapKeyError builds an InvalidMapKeyError.
func NewInvalidMapKeyError(key, reason string) error {
	return &InvalidMapKeyError{Key: key, Reason: reason}
}

// ReservedMapKeyError reports an attempt to create or destroy a channel whose name starts with
// a reserved prefix via the unprivileged path.
type ReservedMapKeyError struct {
	Key string
}

func (e *ReservedMapKeyError) Error() string {
	return fmt.Sprintf("forgescan: %q uses a reserved channel-name prefix", e.Key)
}

func (e *ReservedMapKeyError) Unwrap() error { return errReservedMapKey }

// NewReservedMapKeyError builds a ReservedMapKeyError.
func NewReservedMapKeyError(key string) error {
	return &ReservedMapKeyError{Key: key}
}

// ConstructorError reports that a channel factory could not parse a requested configuration, or
// that a combination of options is mutually exclusive.
type ConstructorError struct {
	Component string
	Reason    string
}

func (e *ConstructorError) Error() string {
	return fmt.Sprintf("forgescan: cannot construct %s: %s", e.Component, e.Reason)
}

func (e *ConstructorError) Unwrap() error { return errConstructor }

// NewConstructorError builds a ConstructorError.
func NewConstructorError(component, reason string) error {
	return &ConstructorError{Component: component, Reason: reason}
}

// Reserved channel-name prefixes. Channels named with these prefixes may only be inserted via
// the privileged metric/policy paths.
const (
	MetricChannelPrefix = "Metric"
	PolicyChannelPrefix = "Policy"
)

// IsReservedChannelName reports whether name begins with a prefix reserved for Metrics or Policies.
func IsReservedChannelName(name string) bool {
	return hasPrefix(name, MetricChannelPrefix) || hasPrefix(name, PolicyChannelPrefix)
}

func hasPrefix(name, prefix string) bool {
	return len(name) >= len(prefix) && name[:len(prefix)] == prefix
}
