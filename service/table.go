package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/revision"
)

// Handler implements one command for service type S.
type Handler[S any] func(svc S, c *Context) ipc.ResultCode

// Descriptor binds a command id and minimum revision to a handler.
type Descriptor[S any] struct {
	Handler     Handler[S]
	Name        string
	ID          uint32
	MinRevision revision.Revision
}

// Service answers guest requests for one session.
type Service interface {
	Dispatch(ctx context.Context, rev revision.Revision, req ipc.Request) ipc.Response
}

// Table is an immutable command table.
type Table[S any] struct {
	name string
	byID map[uint32][]Descriptor[S] // each slice sorted by MinRevision, descending
}

// NewTable builds a table. Duplicate (id, revision) pairs and nil handlers
// are registration errors.
func NewTable[S any](name string, descs ...Descriptor[S]) (*Table[S], error) {
	t := &Table[S]{
		name: name,
		byID: make(map[uint32][]Descriptor[S], len(descs)),
	}

	for _, d := range descs {
		if d.Handler == nil {
			return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
				Op(name).
				Value(d.ID).
				Detail("command %d (%s) has no handler", d.ID, d.Name).
				Build()
		}
		for _, existing := range t.byID[d.ID] {
			if existing.MinRevision == d.MinRevision {
				return nil, errors.New(errors.PhaseRegister, errors.KindDuplicate).
					Op(name).
					Value(d.ID).
					Detail("command %d registered twice at %s (%s, %s)", d.ID, d.MinRevision, existing.Name, d.Name).
					Build()
			}
		}
		t.byID[d.ID] = append(t.byID[d.ID], d)
	}

	for id := range t.byID {
		list := t.byID[id]
		sort.Slice(list, func(i, j int) bool { return list[i].MinRevision > list[j].MinRevision })
	}
	return t, nil
}

// MustTable is NewTable for package-level tables; a registration error panics
// before any request is served.
func MustTable[S any](name string, descs ...Descriptor[S]) *Table[S] {
	t, err := NewTable(name, descs...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the service name the table was built with.
func (t *Table[S]) Name() string {
	return t.name
}

// Resolve returns the descriptor serving id for a caller at rev.
func (t *Table[S]) Resolve(id uint32, rev revision.Revision) (Descriptor[S], bool) {
	for _, d := range t.byID[id] {
		if d.MinRevision <= rev {
			return d, true
		}
	}
	return Descriptor[S]{}, false
}

// CommandName returns the handler name for id at rev, or "" when unresolved.
func (t *Table[S]) CommandName(id uint32, rev revision.Revision) string {
	d, ok := t.Resolve(id, rev)
	if !ok {
		return ""
	}
	return d.Name
}

// Commands lists all descriptors ordered by id, then revision.
func (t *Table[S]) Commands() []Descriptor[S] {
	var out []Descriptor[S]
	for _, list := range t.byID {
		out = append(out, list...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].MinRevision < out[j].MinRevision
	})
	return out
}

// Dispatch resolves req.Command for rev and runs the handler against svc.
func (t *Table[S]) Dispatch(ctx context.Context, svc S, rev revision.Revision, req ipc.Request) ipc.Response {
	d, ok := t.Resolve(req.Command, rev)
	if !ok {
		Logger().Debug("command not implemented",
			zap.String("service", t.name),
			zap.Uint32("cmd", req.Command),
			zap.Stringer("revision", rev))
		return ipc.Failed(ipc.NotImplemented)
	}

	c := NewContext(ctx, rev, req)
	rc := d.Handler(svc, c)

	if ce := Logger().Check(zap.DebugLevel, "dispatch"); ce != nil {
		ce.Write(
			zap.String("service", t.name),
			zap.String("command", d.Name),
			zap.Uint32("cmd", req.Command),
			zap.Stringer("revision", rev),
			zap.Stringer("result", rc))
	}
	return c.Response(rc)
}

// Bind pairs a table with a service value.
func Bind[S any](t *Table[S], svc S) Service {
	return bound[S]{table: t, svc: svc}
}

type bound[S any] struct {
	table *Table[S]
	svc   S
}

func (b bound[S]) Dispatch(ctx context.Context, rev revision.Revision, req ipc.Request) ipc.Response {
	return b.table.Dispatch(ctx, b.svc, rev, req)
}
