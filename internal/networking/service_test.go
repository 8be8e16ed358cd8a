package networking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdays-network/bdays/internal/directory"
	"github.com/bdays-network/bdays/internal/logging"
)

// fakeDirectory implements Directory with canned results and call records.
type fakeDirectory struct {
	writeRes directory.WriteResult
	writeErr error

	lookup    directory.Lookup
	lookupErr error

	addOK  bool
	addErr error

	leaderboard    directory.Lookup
	leaderboardErr error

	writes   []directory.User
	reads    []string
	addCalls [][2]string
}

func (f *fakeDirectory) WriteUser(_ context.Context, name, email, phone, linkedin string) (directory.WriteResult, error) {
	f.writes = append(f.writes, directory.User{Name: name, Email: email, Phone: phone, LinkedIn: linkedin})
	return f.writeRes, f.writeErr
}

func (f *fakeDirectory) ReadUser(_ context.Context, id string) (directory.Lookup, error) {
	f.reads = append(f.reads, "id:"+id)
	return f.lookup, f.lookupErr
}

func (f *fakeDirectory) ReadByName(_ context.Context, name string) (directory.Lookup, error) {
	f.reads = append(f.reads, "name:"+name)
	return f.lookup, f.lookupErr
}

func (f *fakeDirectory) ReadUserByEmail(_ context.Context, email string) (directory.Lookup, error) {
	f.reads = append(f.reads, "email:"+email)
	return f.lookup, f.lookupErr
}

func (f *fakeDirectory) AddFriends(_ context.Context, first, second string) (bool, error) {
	f.addCalls = append(f.addCalls, [2]string{first, second})
	return f.addOK, f.addErr
}

func (f *fakeDirectory) GetLeaderboard(context.Context) (directory.Lookup, error) {
	return f.leaderboard, f.leaderboardErr
}

func newService(dir *fakeDirectory) *Service {
	return NewService(dir, logging.Discard())
}

func janeRecord() directory.User {
	return directory.User{ID: "42", Name: "Jane Doe", Email: "jane@x.com", Friends: []directory.Friend{}}
}

func TestRegisterThenLoginScenario(t *testing.T) {
	ctx := context.Background()
	dir := &fakeDirectory{writeRes: directory.Ok([]byte(`{"message":"OK"}`))}
	svc := newService(dir)

	ok := svc.RegisterUser(ctx, directory.User{Name: "Jane Doe", Email: "jane@x.com"})
	require.True(t, ok)
	require.Len(t, dir.writes, 1)
	assert.Equal(t, "jane@x.com", dir.writes[0].Email)

	dir.lookup = directory.Many([]directory.User{janeRecord()})
	u := svc.LoginUser(ctx, "jane@x.com", "Jane Doe")
	require.NotNil(t, u)
	assert.Equal(t, "42", u.ID)
	assert.Equal(t, []string{"email:jane@x.com"}, dir.reads)
}

func TestRegisterUserFailures(t *testing.T) {
	ctx := context.Background()
	u := directory.User{Name: "Jane Doe", Email: "jane@x.com"}

	embedded := &fakeDirectory{writeRes: directory.Failed("Error: exists", nil)}
	assert.False(t, newService(embedded).RegisterUser(ctx, u))

	transport := &fakeDirectory{writeErr: errors.New("connection refused")}
	assert.False(t, newService(transport).RegisterUser(ctx, u))
}

func TestLoginUserNameMatching(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		lookup directory.Lookup
		err    error
		input  string
		found  bool
	}{
		{name: "case insensitive", lookup: directory.Many([]directory.User{janeRecord()}), input: "jane DOE", found: true},
		{name: "single object", lookup: directory.Single(janeRecord()), input: "Jane Doe", found: true},
		{name: "name mismatch", lookup: directory.Many([]directory.User{janeRecord()}), input: "Jane", found: false},
		{name: "empty list", lookup: directory.Many(nil), input: "Jane Doe", found: false},
		{name: "empty body", lookup: directory.Lookup{}, input: "Jane Doe", found: false},
		{name: "record without name", lookup: directory.Single(directory.User{ID: "1", Email: "jane@x.com"}), input: "", found: false},
		{name: "lookup error", err: errors.New("timeout"), input: "Jane Doe", found: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(&fakeDirectory{lookup: tc.lookup, lookupErr: tc.err})
			u := svc.LoginUser(ctx, "jane@x.com", tc.input)
			assert.Equal(t, tc.found, u != nil)
		})
	}
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()
	bo := directory.User{ID: "7", Name: "Bo", Email: "bo@x.com", Points: 300, Friends: []directory.Friend{{Email: "x@x.com"}}}

	svc := newService(&fakeDirectory{lookup: directory.Many([]directory.User{janeRecord(), bo})})
	res := svc.SearchUsers(ctx, "o")
	require.Len(t, res, 2)
	assert.Equal(t, directory.Friend{ID: "7", Name: "Bo", Email: "bo@x.com"}, res[1])

	single := newService(&fakeDirectory{lookup: directory.Single(bo)})
	assert.Empty(t, single.SearchUsers(ctx, "bo"))

	failing := newService(&fakeDirectory{lookupErr: errors.New("down")})
	res = failing.SearchUsers(ctx, "bo")
	assert.NotNil(t, res)
	assert.Empty(t, res)
}

func TestConnectWithUserRequiresIDs(t *testing.T) {
	ctx := context.Background()
	dir := &fakeDirectory{addOK: true}
	svc := newService(dir)

	ok := svc.ConnectWithUser(ctx, directory.User{Name: "A", Email: "a@x.com"}, directory.Friend{Name: "B", Email: "b@x.com"})
	assert.False(t, ok)
	assert.Empty(t, dir.addCalls, "no network call expected")

	ok = svc.ConnectWithUser(ctx, janeRecord(), directory.Friend{Name: "B", Email: "b@x.com"})
	assert.False(t, ok)
	assert.Empty(t, dir.addCalls)
}

func TestConnectWithUser(t *testing.T) {
	ctx := context.Background()
	dir := &fakeDirectory{addOK: true}
	svc := newService(dir)

	assert.True(t, svc.ConnectWithUser(ctx, janeRecord(), directory.Friend{ID: "7", Email: "bo@x.com"}))
	assert.Equal(t, [][2]string{{"42", "7"}}, dir.addCalls)

	dir.addOK = false
	assert.False(t, svc.ConnectWithUser(ctx, janeRecord(), directory.Friend{ID: "7", Email: "bo@x.com"}))

	dir.addErr = errors.New("503")
	assert.False(t, svc.ConnectWithUser(ctx, janeRecord(), directory.Friend{ID: "7", Email: "bo@x.com"}))
}

func TestGetUserByID(t *testing.T) {
	ctx := context.Background()

	list := newService(&fakeDirectory{lookup: directory.Many([]directory.User{janeRecord()})})
	require.NotNil(t, list.GetUserByID(ctx, "42"))

	single := newService(&fakeDirectory{lookup: directory.Single(janeRecord())})
	require.NotNil(t, single.GetUserByID(ctx, "42"))

	noID := newService(&fakeDirectory{lookup: directory.Single(directory.User{Name: "Jane Doe"})})
	assert.Nil(t, noID.GetUserByID(ctx, "42"))

	empty := newService(&fakeDirectory{lookup: directory.Many(nil)})
	assert.Nil(t, empty.GetUserByID(ctx, "42"))

	failing := newService(&fakeDirectory{lookupErr: errors.New("down")})
	assert.Nil(t, failing.GetUserByID(ctx, "42"))
}

func TestGetLeaderboardSortedAndTruncated(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	for _, n := range []int{0, 3, 10, 11, 40} {
		users := make([]directory.User, n)
		for i := range users {
			users[i] = directory.User{ID: fmt.Sprint(i), Name: fmt.Sprintf("u%d", i), Points: rng.Intn(500)}
		}
		svc := newService(&fakeDirectory{leaderboard: directory.Many(users)})

		got := svc.GetLeaderboard(ctx)
		assert.LessOrEqual(t, len(got), 10)
		if n <= 10 {
			assert.Len(t, got, n)
		}
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Points, got[i].Points)
		}
	}
}

func TestGetLeaderboardNonListIsEmpty(t *testing.T) {
	ctx := context.Background()

	single := newService(&fakeDirectory{leaderboard: directory.Single(janeRecord())})
	assert.Empty(t, single.GetLeaderboard(ctx))

	failing := newService(&fakeDirectory{leaderboardErr: errors.New("down")})
	got := failing.GetLeaderboard(ctx)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTestRegistrationUsesUniqueEmail(t *testing.T) {
	dir := &fakeDirectory{writeRes: directory.Ok(nil)}
	svc := newService(dir)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	res, err := svc.TestRegistration(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK())
	require.Len(t, dir.writes, 1)
	assert.Equal(t, "test.user.1700000000000@example.com", dir.writes[0].Email)
}
