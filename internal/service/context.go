package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/threads-service/internal/models"
	"github.com/pribylovaa/threads-service/internal/storage"
	"github.com/pribylovaa/threads-service/pkg/log"
)

// StatusContext — ветка вокруг статуса: предки от корня к родителю и потомки
// в порядке обхода в глубину (ответы одного родителя по возрастанию created_at).
//
// Статусы ветки подгружаются из стораджа в индекс веток, после чего порядок
// восстанавливается по индексу. Параллельные запросы к одному статусу
// подгружают ветку один раз.
//
// Поведение/ошибки:
//   - ErrInvalidArgument — пустой id;
//   - ErrNotFound — статус не найден;
//   - context.Canceled/context.DeadlineExceeded — запрос отменён или истёк его дедлайн;
//   - ErrInternal — иные ошибки стораджа.
func (s *Service) StatusContext(ctx context.Context, id string) (*models.Context, error) {
	const op = "service/context/StatusContext"

	id = strings.TrimSpace(id)
	// Логгер с focal id уходит в контекст: его же видит фоновая загрузка ветки.
	ctx, lg := log.With(ctx, "op", op, "focal_id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	focal, err := s.storage.StatusByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("status not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		case isContextErr(err):
			lg.Warn("request aborted", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ctxErr(ctx, err))
		default:
			lg.Error("storage error on StatusByID", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}
	s.remember(*focal)

	// Загрузка отвязана от отмены конкретного запроса: её результат нужен всем,
	// кто ждёт ту же ветку. Ограничена сервисным таймаутом.
	ch := s.loads.DoChan(focal.ID, func() (any, error) {
		lctx, cancel := s.loadContext(ctx)
		defer cancel()

		return nil, s.loadThread(lctx, *focal)
	})

	select {
	case <-ctx.Done():
		lg.Warn("request aborted while loading thread", "err", ctx.Err())
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			if isContextErr(res.Err) {
				lg.Warn("thread load timed out", "err", res.Err)
				return nil, fmt.Errorf("%s: %w", op, context.DeadlineExceeded)
			}
			lg.Error("storage error on thread load", "err", res.Err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	ancestors, descendants := s.store.Resolve(focal.ID)
	if limit := s.cfg.Limits.MaxDescendants; limit > 0 && len(descendants) > limit {
		descendants = descendants[:limit]
	}
	s.metrics.ObserveResolve(len(ancestors), len(descendants))

	lg.Debug("thread resolved", "ancestors", len(ancestors), "descendants", len(descendants))

	return &models.Context{
		Ancestors:   s.store.Statuses(ancestors),
		Descendants: s.store.Statuses(descendants),
	}, nil
}

// loadThread подгружает предков и потомков статуса параллельно и кладёт их в индекс веток.
func (s *Service) loadThread(ctx context.Context, focal models.Status) error {
	var ancestors, descendants []models.Status

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ancestors, err = s.fetchAncestors(gctx, focal)
		return err
	})
	g.Go(func() error {
		var err error
		descendants, err = s.fetchDescendants(gctx, focal)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	s.remember(ancestors...)
	s.remember(descendants...)

	return nil
}

// fetchAncestors поднимается по цепочке InReplyToID не более чем на MaxDepth шагов.
// Статусы, загруженные в индекс не раньше cfg.Cache.TTL назад, в сторадж не
// запрашиваются. Отсутствующий родитель обрывает цепочку без ошибки.
func (s *Service) fetchAncestors(ctx context.Context, focal models.Status) ([]models.Status, error) {
	var out []models.Status

	seen := map[string]struct{}{focal.ID: {}}
	cur := focal.InReplyToID
	for hops := int32(0); cur != "" && hops < s.cfg.Limits.MaxDepth; hops++ {
		if _, ok := seen[cur]; ok {
			break
		}
		seen[cur] = struct{}{}

		if st, ok := s.store.Fresh(cur, s.cfg.Cache.TTL); ok {
			cur = st.InReplyToID
			continue
		}

		st, err := s.storage.StatusByID(ctx, cur)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				break
			}
			return nil, err
		}

		out = append(out, *st)
		cur = st.InReplyToID
	}

	return out, nil
}

// fetchDescendants обходит ответы в ширину постранично. В очередь попадают только
// статусы с RepliesCount > 0; обход останавливается на MaxDescendants статусах.
func (s *Service) fetchDescendants(ctx context.Context, focal models.Status) ([]models.Status, error) {
	var out []models.Status
	if focal.RepliesCount == 0 {
		return out, nil
	}

	limit := s.cfg.Limits.MaxDescendants
	seen := map[string]struct{}{focal.ID: {}}
	queue := []string{focal.ID}

	for len(queue) > 0 && len(out) < limit {
		parentID := queue[0]
		queue = queue[1:]

		token := ""
		for {
			page, err := s.storage.ListReplies(ctx, parentID, models.ListParams{
				PageSize:  s.cfg.Limits.Max,
				PageToken: token,
			})
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					break
				}
				return nil, err
			}

			for _, st := range page.Items {
				if _, ok := seen[st.ID]; ok {
					continue
				}
				seen[st.ID] = struct{}{}

				out = append(out, st)
				if len(out) >= limit {
					return out, nil
				}
				if st.RepliesCount > 0 {
					queue = append(queue, st.ID)
				}
			}

			if page.NextPageToken == "" {
				break
			}
			token = page.NextPageToken
		}
	}

	return out, nil
}

// loadContext — контекст фоновой загрузки: сохраняет значения ctx (логгер),
// но не его отмену.
func (s *Service) loadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if s.cfg.Timeouts.Service <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, s.cfg.Timeouts.Service)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ctxErr предпочитает причину из ctx запроса: сторадж может вернуть
// обёрнутую ошибку драйвера.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return context.DeadlineExceeded
}
