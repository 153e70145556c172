// Package services – channel permission checks
//
// Ingestion only works when the platform bot account can actually read the
// channels it is pointed at. This file defines the permission diagnostic the
// dashboard surfaces so operators can see at a glance why a channel is
// silent.

package services

import (
	"context"
	"sync"
)

// Permissions a reader bot needs on a channel.
const (
	PermViewChannel        = "view_channel"
	PermReadMessageHistory = "read_message_history"
)

// ChannelPermissions is the diagnostic result for one channel.
type ChannelPermissions struct {
	ChannelID          string   `json:"channelId"`
	HasPermissions     bool     `json:"hasPermissions"`
	MissingPermissions []string `json:"missingPermissions"`
}

// PermissionChecker answers whether the ingesting bot can read a channel.
// Implementations may query the platform API; the default implementation is
// a static registry maintained by the ingestion workers.
type PermissionChecker interface {
	Check(ctx context.Context, channelID string) (ChannelPermissions, error)
}

// StaticPermissionChecker is a concurrency-safe in-memory registry of
// channel permission states. Workers record what they observe while polling;
// unknown channels return ErrChannelNotFound.
type StaticPermissionChecker struct {
	mu       sync.RWMutex
	channels map[string]ChannelPermissions
}

// NewStaticPermissionChecker builds an empty registry.
func NewStaticPermissionChecker() *StaticPermissionChecker {
	return &StaticPermissionChecker{channels: make(map[string]ChannelPermissions)}
}

// Record stores the observed permission state for a channel. An empty
// missing list marks the channel fully readable.
func (c *StaticPermissionChecker) Record(channelID string, missing []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[channelID] = ChannelPermissions{
		ChannelID:          channelID,
		HasPermissions:     len(missing) == 0,
		MissingPermissions: append([]string(nil), missing...),
	}
}

// Check implements PermissionChecker.
func (c *StaticPermissionChecker) Check(_ context.Context, channelID string) (ChannelPermissions, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.channels[channelID]
	if !ok {
		return ChannelPermissions{}, ErrChannelNotFound
	}
	// Copy the slice so callers cannot mutate the registry.
	p.MissingPermissions = append([]string(nil), p.MissingPermissions...)
	return p, nil
}
