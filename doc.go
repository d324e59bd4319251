// Package hle emulates host system services for a guest execution
// environment.
//
// A guest issues numbered commands against a service. Each command is routed
// through a static, revision-gated command table to a handler that reads a
// fixed-layout payload, may hand out handles to host kernel objects and
// answers with a result code, an output payload and handle descriptors.
//
// # Architecture Overview
//
//	hle/                 Root package with the guest Memory interface
//	├── budget/          Mixer resource budget: constants, timing, validation
//	├── kernel/          Host kernel objects (events) referenced by handles
//	├── handle/          Per-session handle registry
//	├── ipc/             Wire types, result codes, payload and frame codecs
//	├── revision/        Firmware revision values
//	├── service/         Command tables and revision-gated dispatch
//	├── apm/             Power management sub-service
//	├── am/              ICommonStateGetter service
//	├── session/         Per-client state and the session manager
//	├── system/          Wiring of services, sessions and configuration
//	├── config/          YAML configuration with hot reload
//	├── trace/           CBOR call traces
//	├── guest/           wazero host module for WASM guests
//	└── errors/          Structured error types
//
// # Quick Start
//
//	sys, err := system.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sys.Close()
//
//	sess, err := sys.Connect(pid)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := sess.Dispatch(ctx, ipc.Request{Command: am.CmdGetOperationMode})
//
// # Concurrency
//
// Commands on one session run one at a time. Sessions are independent and
// may dispatch concurrently; the power management state they share is
// serialized internally. Nothing in a command blocks: ReceiveMessage returns
// NoMessagesPending on an empty queue and event handles are handed out, never
// waited on.
package hle
