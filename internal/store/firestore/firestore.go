// Package firestore implements store.Store on Cloud Firestore, the
// database the production data set lives in.
package firestore

import (
	"context"
	"sync"

	cf "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ripple-app/ripple/internal/store"
	"github.com/ripple-app/ripple/shared/errors"
	"github.com/ripple-app/ripple/shared/logger"
)

type Store struct {
	client *cf.Client
}

func New(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := cf.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Create(ctx context.Context, collection string, data store.Fields) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, encode(data))
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *Store) Set(ctx context.Context, path string, data store.Fields) error {
	_, err := s.client.Doc(path).Set(ctx, encode(data))
	return err
}

func (s *Store) Patch(ctx context.Context, path string, data store.Fields) error {
	_, err := s.client.Doc(path).Set(ctx, encode(data), cf.MergeAll)
	return err
}

func (s *Store) Get(ctx context.Context, path string) (store.Record, error) {
	snap, err := s.client.Doc(path).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return store.Record{}, errors.NotFound
	}
	if err != nil {
		return store.Record{}, err
	}
	return store.Record{Id: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.Doc(path).Delete(ctx)
	return err
}

func (s *Store) Query(ctx context.Context, q store.Query) ([]store.Record, error) {
	it := s.build(q).Documents(ctx)
	defer it.Stop()
	return drain(it)
}

func (s *Store) Subscribe(ctx context.Context, q store.Query) (store.Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		ch:     make(chan []store.Record, 1),
		cancel: cancel,
	}

	it := s.build(q).Snapshots(subCtx)
	go func() {
		defer close(sub.ch)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Log.Error("snapshot stream failed", "collection", q.Collection, "error", err)
				}
				return
			}
			recs, err := drain(snap.Documents)
			if err != nil {
				logger.Log.Error("snapshot read failed", "collection", q.Collection, "error", err)
				return
			}
			select {
			case sub.ch <- recs:
			case <-subCtx.Done():
				return
			}
		}
	}()
	return sub, nil
}

func (s *Store) build(q store.Query) cf.Query {
	query := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, "==", f.Value)
	}
	for _, o := range q.OrderBy {
		dir := cf.Asc
		if o.Direction == store.Desc {
			dir = cf.Desc
		}
		query = query.OrderBy(o.Field, dir)
	}
	return query
}

func drain(it *cf.DocumentIterator) ([]store.Record, error) {
	var out []store.Record
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, store.Record{Id: snap.Ref.ID, Data: snap.Data()})
	}
}

func encode(data store.Fields) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if v == store.ServerTimestamp {
			out[k] = cf.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}

type subscription struct {
	ch        chan []store.Record
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (sub *subscription) Updates() <-chan []store.Record {
	return sub.ch
}

func (sub *subscription) Close() {
	sub.closeOnce.Do(sub.cancel)
}
