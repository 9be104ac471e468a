//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"bbs-lab/domain"
	"bbs-lab/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one session's outbound transport. Consume must not block
// the relay: implementations buffer and report failure instead of waiting.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRelay is the protocol surface the transport and collaborators drive.
type IRelay interface {
	Connect(token, correlationID string, sink EventSink) (*domain.Session, error)
	Disconnect(sessionID string)
	Join(sessionID string, channel domain.ChannelName, displayName string) error
	Leave(sessionID string, channel domain.ChannelName) error
	PostMessage(sessionID string, channel domain.ChannelName, text string) error
	KeepAlive(sessionID string) error
	NotifyNewPost(board string)
}

// IdentityResolver is the identity-lookup collaborator: it turns a bearer
// credential into an identity or reports it invalid.
type IdentityResolver interface {
	Resolve(token string) (id string, name string, err error)
}
