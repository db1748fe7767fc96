package persistence

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/stepform/pkg/api"
)

// RedisStore is a Store backed by Redis.
// It uses a simple key structure:
//
//	<prefix>sub:<id>             => HASH of submission columns
//	<prefix>sub:<id>:fields      => HASH of group-scoped field values
//	<prefix>idx:all              => SET of all submission IDs
//	<prefix>idx:wizard:<wizard>  => SET of submission IDs for a given wizard
//	<prefix>parent:<id>          => HASH with the completion back-reference
//
// Conditional writes run as Lua scripts so each one is atomic on the server.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore.
// prefix is optional but recommended (e.g. "stepform:").
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "stepform:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) keySubmission(id string) string {
	return s.prefix + "sub:" + id
}

func (s *RedisStore) keyFields(id string) string {
	return s.prefix + "sub:" + id + ":fields"
}

func (s *RedisStore) keyAll() string {
	return s.prefix + "idx:all"
}

func (s *RedisStore) keyWizard(wizardID string) string {
	return s.prefix + "idx:wizard:" + wizardID
}

func (s *RedisStore) keyParent(id string) string {
	return s.prefix + "parent:" + id
}

// Script results shared by the conditional scripts.
const (
	scriptOK        = 1
	scriptNotFound  = -1
	scriptCompleted = -2
	scriptConflict  = -3
)

var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

var setScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

var mergeFieldsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
redis.call('HSET', KEYS[1], 'updated_at', ARGV[1])
if #ARGV > 1 then
	redis.call('HSET', KEYS[2], unpack(ARGV, 2))
end
return 1
`)

var advanceScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'current_step')
if not cur then
	return -1
end
cur = tonumber(cur)
local done = tonumber(redis.call('HGET', KEYS[1], 'completed_at') or '0')
local step = tonumber(ARGV[1])
if done ~= 0 then
	return -2
end
if cur < step then
	return -3
end
if cur == step then
	redis.call('HSET', KEYS[1], 'current_step', step + 1)
end
redis.call('HSET', KEYS[1], 'incomplete', '1', 'updated_at', ARGV[2])
return 1
`)

var completeScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'current_step')
if not cur then
	return -1
end
cur = tonumber(cur)
local done = tonumber(redis.call('HGET', KEYS[1], 'completed_at') or '0')
if done ~= 0 then
	return -2
end
if cur < tonumber(ARGV[1]) then
	return -3
end
redis.call('HSET', KEYS[1], 'incomplete', '0', 'completed_at', ARGV[2], 'updated_at', ARGV[3])
return 1
`)

func scriptError(code int) error {
	switch code {
	case scriptOK:
		return nil
	case scriptNotFound:
		return ErrSubmissionNotFound
	case scriptCompleted:
		return ErrSubmissionCompleted
	case scriptConflict:
		return ErrStepConflict
	default:
		return errors.New("redis store: unexpected script result " + strconv.Itoa(code))
	}
}

func nanosArg(t time.Time) string {
	return strconv.FormatInt(toNanos(t), 10)
}

func (s *RedisStore) CreateSubmission(ctx context.Context, sub *api.Submission) error {
	created := sub.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	inserted, err := createScript.Run(ctx, s.client, []string{s.keySubmission(sub.ID)},
		"wizard_id", sub.WizardID,
		"title", sub.Title,
		"parent_id", sub.ParentID,
		"status", string(sub.Status),
		"current_step", strconv.Itoa(sub.CurrentStep),
		"token", sub.Token,
		"incomplete", strconv.Itoa(boolToInt(sub.Incomplete)),
		"created_at", nanosArg(created),
		"updated_at", nanosArg(created),
		"completed_at", nanosArg(sub.CompletedAt),
	).Int()
	if err != nil {
		return err
	}
	if inserted == 0 {
		return ErrDuplicateSubmission
	}

	pipe := s.client.TxPipeline()
	if len(sub.Fields) > 0 {
		pipe.HSet(ctx, s.keyFields(sub.ID), fieldArgs(sub.Fields)...)
	}
	pipe.SAdd(ctx, s.keyAll(), sub.ID)
	pipe.SAdd(ctx, s.keyWizard(sub.WizardID), sub.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func fieldArgs(fields map[string]string) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}

func decodeRedisSubmission(id string, h, fields map[string]string) (*api.Submission, error) {
	if len(h) == 0 {
		return nil, ErrSubmissionNotFound
	}
	step, err := strconv.Atoi(h["current_step"])
	if err != nil {
		return nil, err
	}
	sub := &api.Submission{
		ID:          id,
		WizardID:    h["wizard_id"],
		Title:       h["title"],
		ParentID:    h["parent_id"],
		Status:      api.Status(h["status"]),
		CurrentStep: step,
		Token:       h["token"],
		Incomplete:  h["incomplete"] == "1",
		CreatedAt:   parseNanos(h["created_at"]),
		UpdatedAt:   parseNanos(h["updated_at"]),
		CompletedAt: parseNanos(h["completed_at"]),
		Fields:      fields,
	}
	if sub.Fields == nil {
		sub.Fields = make(map[string]string)
	}
	return sub, nil
}

func parseNanos(v string) time.Time {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return fromNanos(n)
}

func (s *RedisStore) GetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	pipe := s.client.Pipeline()
	hcmd := pipe.HGetAll(ctx, s.keySubmission(id))
	fcmd := pipe.HGetAll(ctx, s.keyFields(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	return decodeRedisSubmission(id, hcmd.Val(), fcmd.Val())
}

func (s *RedisStore) ListSubmissions(ctx context.Context, opts api.SubmissionListOptions) ([]*api.Submission, error) {
	idxKey := s.keyAll()
	if opts.WizardID != "" {
		idxKey = s.keyWizard(opts.WizardID)
	}

	ids, err := s.client.SMembers(ctx, idxKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*api.Submission{}, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return []*api.Submission{}, nil
	}
	sort.Strings(ids)

	pipe := s.client.Pipeline()
	hcmds := make([]*redis.MapStringStringCmd, len(ids))
	fcmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		hcmds[i] = pipe.HGetAll(ctx, s.keySubmission(id))
		fcmds[i] = pipe.HGetAll(ctx, s.keyFields(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var result []*api.Submission
	for i, id := range ids {
		sub, err := decodeRedisSubmission(id, hcmds[i].Val(), fcmds[i].Val())
		if err != nil {
			if errors.Is(err, ErrSubmissionNotFound) {
				// Stale index entry.
				continue
			}
			return nil, err
		}
		if matches(sub, opts) {
			result = append(result, sub)
		}
	}
	return result, nil
}

func (s *RedisStore) set(ctx context.Context, id string, kv ...string) error {
	args := make([]any, 0, len(kv)+2)
	for _, v := range kv {
		args = append(args, v)
	}
	args = append(args, "updated_at", nanosArg(s.now()))

	code, err := setScript.Run(ctx, s.client, []string{s.keySubmission(id)}, args...).Int()
	if err != nil {
		return err
	}
	return scriptError(code)
}

func (s *RedisStore) MergeFields(ctx context.Context, id string, fields map[string]string) error {
	args := append([]any{nanosArg(s.now())}, fieldArgs(fields)...)
	code, err := mergeFieldsScript.Run(ctx, s.client,
		[]string{s.keySubmission(id), s.keyFields(id)}, args...,
	).Int()
	if err != nil {
		return err
	}
	return scriptError(code)
}

func (s *RedisStore) SetTitle(ctx context.Context, id, title string) error {
	return s.set(ctx, id, "title", title)
}

func (s *RedisStore) SetToken(ctx context.Context, id, token string) error {
	return s.set(ctx, id, "token", token)
}

func (s *RedisStore) SetStatus(ctx context.Context, id string, status api.Status) error {
	return s.set(ctx, id, "status", string(status))
}

func (s *RedisStore) AdvanceStep(ctx context.Context, id string, step int) error {
	code, err := advanceScript.Run(ctx, s.client, []string{s.keySubmission(id)},
		step, nanosArg(s.now()),
	).Int()
	if err != nil {
		return err
	}
	return scriptError(code)
}

func (s *RedisStore) CompleteSubmission(ctx context.Context, id string, step int, at time.Time) error {
	code, err := completeScript.Run(ctx, s.client, []string{s.keySubmission(id)},
		step, nanosArg(at), nanosArg(s.now()),
	).Int()
	if err != nil {
		return err
	}
	return scriptError(code)
}

func (s *RedisStore) RecordCompletion(ctx context.Context, parentID, submissionID string, at time.Time) error {
	return s.client.HSet(ctx, s.keyParent(parentID),
		"recent_submission", submissionID,
		"last_completed_at", nanosArg(at),
	).Err()
}

func (s *RedisStore) GetParent(ctx context.Context, parentID string) (*api.ParentRecord, error) {
	h, err := s.client.HGetAll(ctx, s.keyParent(parentID)).Result()
	if err != nil {
		return nil, err
	}
	if len(h) == 0 {
		return nil, ErrParentNotFound
	}
	return &api.ParentRecord{
		ID:               parentID,
		RecentSubmission: h["recent_submission"],
		LastCompletedAt:  parseNanos(h["last_completed_at"]),
	}, nil
}
