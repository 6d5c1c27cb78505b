// Package plugin is the plugin gateway: up to eight predefined slots
// behind a uniform capability table. A plugin is modeled purely as a Go
// interface, and "symbol resolution" is a name-to-factory registration
// step analogous to database/sql's driver registry, not a dlopen call.
package plugin

import "github.com/genivi/pclient/pkg/pclerror"

// Slot is one of the eight predefined plugin slots.
type Slot string

const (
	SlotDefault   Slot = "default"
	SlotEarly     Slot = "early"
	SlotSecure    Slot = "secure"
	SlotEmergency Slot = "emergency"
	SlotHWInfo    Slot = "hwinfo"
	SlotCustom1   Slot = "custom1"
	SlotCustom2   Slot = "custom2"
	SlotCustom3   Slot = "custom3"
)

// AllSlots enumerates the eight valid slot names.
var AllSlots = []Slot{SlotDefault, SlotEarly, SlotSecure, SlotEmergency, SlotHWInfo, SlotCustom1, SlotCustom2, SlotCustom3}

func isValidSlot(s Slot) bool {
	for _, v := range AllSlots {
		if v == s {
			return true
		}
	}
	return false
}

// LoadPolicy selects whether a slot resolves symbols at library init or on
// first use.
type LoadPolicy int

const (
	LoadAtInit LoadPolicy = iota
	LoadOnDemand
)

// InitKind selects whether a plugin's init call is synchronous or
// asynchronous (completion delivered via callback).
type InitKind int

const (
	InitSync InitKind = iota
	InitAsync
)

// Plugin is the uniform capability table every slot is called through.
// Implementations that only support a subset of capabilities should embed
// Unimplemented and override the methods they provide — the same
// forward-compatible-interface idiom generated gRPC service stubs use.
type Plugin interface {
	Init(completion func(status int)) error
	InitAsync(completion func(status int)) error
	Deinit() error
	Open(internalKey string, writable bool) (int, error)
	Close(handle int) error
	Read(handle int, buf []byte) (int, error)
	Write(handle int, buf []byte) (int, error)
	Size(handle int) (int, error)
	Delete(internalKey string) error
	ClearAll() error
	Sync() error
	CreateBackup(internalKey string) error
	RestoreBackup(internalKey string) error
	GetBackup(internalKey string) ([]byte, error)
	StatusNotify(status int) error
}

// Unimplemented provides a no-plugin-function-returning implementation of
// every capability; embed it and override only the capabilities a plugin
// actually supports.
type Unimplemented struct{}

func (Unimplemented) Init(func(int)) error      { return pclerror.New(pclerror.CodeNoPluginFunction) }
func (Unimplemented) InitAsync(func(int)) error { return pclerror.New(pclerror.CodeNoPluginFunction) }
func (Unimplemented) Deinit() error             { return pclerror.New(pclerror.CodeNoPluginFunction) }
func (Unimplemented) Open(string, bool) (int, error) {
	return 0, pclerror.New(pclerror.CodeNoPluginFunction)
}
func (Unimplemented) Close(int) error { return pclerror.New(pclerror.CodeNoPluginFunction) }
func (Unimplemented) Read(int, []byte) (int, error) {
	return 0, pclerror.New(pclerror.CodeNoPluginFunction)
}
func (Unimplemented) Write(int, []byte) (int, error) {
	return 0, pclerror.New(pclerror.CodeNoPluginFunction)
}
func (Unimplemented) Size(int) (int, error) { return 0, pclerror.New(pclerror.CodeNoPluginFunction) }
func (Unimplemented) Delete(string) error   { return pclerror.New(pclerror.CodeNoPluginFunction) }
func (Unimplemented) ClearAll() error       { return pclerror.New(pclerror.CodeNoPluginFunction) }
func (Unimplemented) Sync() error           { return pclerror.New(pclerror.CodeNoPluginFunction) }
func (Unimplemented) CreateBackup(string) error {
	return pclerror.New(pclerror.CodeNoPluginFunction)
}
func (Unimplemented) RestoreBackup(string) error {
	return pclerror.New(pclerror.CodeNoPluginFunction)
}
func (Unimplemented) GetBackup(string) ([]byte, error) {
	return nil, pclerror.New(pclerror.CodeNoPluginFunction)
}
func (Unimplemented) StatusNotify(int) error { return pclerror.New(pclerror.CodeNoPluginFunction) }
