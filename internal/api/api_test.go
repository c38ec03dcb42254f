package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/api"
	"github.com/Aprilox/HabbitTracker/internal/stats"
	"github.com/Aprilox/HabbitTracker/internal/storage"
)

type testApp struct {
	logger internal.Logger
	repos  *storage.Repositories
}

func (a *testApp) Logger() internal.Logger                      { return a.logger }
func (a *testApp) UserRepo() storage.UserRepository             { return a.repos.Users }
func (a *testApp) CategoryRepo() storage.CategoryRepository     { return a.repos.Categories }
func (a *testApp) HabitRepo() storage.HabitRepository           { return a.repos.Habits }
func (a *testApp) LogRepo() storage.LogRepository               { return a.repos.Logs }
func (a *testApp) FriendshipRepo() storage.FriendshipRepository { return a.repos.Friendships }

type envelope struct {
	Data  json.RawMessage    `json:"data"`
	Meta  map[string]any     `json:"meta"`
	Error *internal.AppError `json:"error"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := internal.NewZapLogger(zap.NewNop().Sugar())
	repos, err := storage.NewFileRepositories(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	r := gin.New()
	api.RegisterRoutes(r, &testApp{logger: logger, repos: repos})
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func registerUser(t *testing.T, r *gin.Engine, pseudo string) string {
	t.Helper()
	w, env := doJSON(t, r, "POST", "/api/auth/register", `{"pseudo":"`+pseudo+`","password":"secret123"}`)
	require.Equal(t, 200, w.Code)
	var user struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	require.NotEmpty(t, user.ID)
	return user.ID
}

func createCategory(t *testing.T, r *gin.Engine, userID, name string) string {
	t.Helper()
	w, env := doJSON(t, r, "POST", "/api/categories", `{"userId":"`+userID+`","name":"`+name+`"}`)
	require.Equal(t, 200, w.Code)
	var cat struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cat))
	return cat.ID
}

func createHabit(t *testing.T, r *gin.Engine, userID, categoryID, name string) string {
	t.Helper()
	w, env := doJSON(t, r, "POST", "/api/habits", `{"userId":"`+userID+`","categoryId":"`+categoryID+`","name":"`+name+`"}`)
	require.Equal(t, 200, w.Code)
	var habit struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &habit))
	return habit.ID
}

func TestRegisterAndLogin(t *testing.T) {
	r := setupRouter(t)

	registerUser(t, r, "alice")

	// Password never leaks in responses.
	w, _ := doJSON(t, r, "POST", "/api/auth/login", `{"pseudo":"alice","password":"secret123"}`)
	assert.Equal(t, 200, w.Code)
	assert.NotContains(t, w.Body.String(), "secret123")
	assert.NotContains(t, w.Body.String(), "password")

	w, env := doJSON(t, r, "POST", "/api/auth/register", `{"pseudo":"alice","password":"secret456"}`)
	assert.Equal(t, 409, w.Code)
	require.NotNil(t, env.Error)

	w, _ = doJSON(t, r, "POST", "/api/auth/login", `{"pseudo":"alice","password":"wrongpass"}`)
	assert.Equal(t, 401, w.Code)

	w, _ = doJSON(t, r, "POST", "/api/auth/register", `{"pseudo":"bob","password":"short"}`)
	assert.Equal(t, 400, w.Code)
}

func TestUserSettingsEndpoint(t *testing.T) {
	r := setupRouter(t)
	userID := registerUser(t, r, "alice")

	w, env := doJSON(t, r, "PUT", "/api/user/settings", `{"userId":"`+userID+`","jokerCount":2,"jokerPeriod":"month"}`)
	require.Equal(t, 200, w.Code)
	var user struct {
		JokerCount  int    `json:"jokerCount"`
		JokerPeriod string `json:"jokerPeriod"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, 2, user.JokerCount)
	assert.Equal(t, "month", user.JokerPeriod)

	w, _ = doJSON(t, r, "PUT", "/api/user/settings", `{"userId":"`+userID+`","jokerPeriod":"fortnight"}`)
	assert.Equal(t, 400, w.Code)

	w, _ = doJSON(t, r, "GET", "/api/user/settings?userId=missing", "")
	assert.Equal(t, 404, w.Code)
}

func TestCategoryAndHabitFlow(t *testing.T) {
	r := setupRouter(t)
	userID := registerUser(t, r, "alice")
	catID := createCategory(t, r, userID, "Santé")
	habitID := createHabit(t, r, userID, catID, "Dormir 8h")

	w, env := doJSON(t, r, "GET", "/api/categories?userId="+userID, "")
	require.Equal(t, 200, w.Code)
	var cats []struct {
		ID     string `json:"id"`
		Icon   string `json:"icon"`
		Habits []struct {
			ID        string `json:"id"`
			Frequency string `json:"frequency"`
		} `json:"habits"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cats))
	require.Len(t, cats, 1)
	assert.Equal(t, catID, cats[0].ID)
	assert.Equal(t, "📋", cats[0].Icon)
	require.Len(t, cats[0].Habits, 1)
	assert.Equal(t, habitID, cats[0].Habits[0].ID)
	assert.Equal(t, "daily", cats[0].Habits[0].Frequency)

	// Deleting a habit archives it.
	w, _ = doJSON(t, r, "DELETE", "/api/habits", `{"id":"`+habitID+`"}`)
	require.Equal(t, 200, w.Code)
	w, env = doJSON(t, r, "GET", "/api/habits?userId="+userID, "")
	require.Equal(t, 200, w.Code)
	var habits []any
	require.NoError(t, json.Unmarshal(env.Data, &habits))
	assert.Empty(t, habits)

	w, _ = doJSON(t, r, "PUT", "/api/habits", `{"id":"missing","name":"X"}`)
	assert.Equal(t, 404, w.Code)

	w, _ = doJSON(t, r, "DELETE", "/api/categories", `{"id":"`+catID+`"}`)
	assert.Equal(t, 200, w.Code)
}

func TestLogToggleAndStats(t *testing.T) {
	r := setupRouter(t)
	userID := registerUser(t, r, "alice")
	catID := createCategory(t, r, userID, "Santé")
	habitID := createHabit(t, r, userID, catID, "Dormir 8h")

	now := time.Now().UTC()
	today := stats.FormatDateKey(now)
	yesterday := stats.FormatDateKey(now.AddDate(0, 0, -1))
	windowStart := stats.FormatDateKey(now.AddDate(0, 0, -2))

	// Complete today, joker yesterday.
	w, env := doJSON(t, r, "POST", "/api/habits/log", `{"userId":"`+userID+`","habitId":"`+habitID+`","date":"`+today+`"}`)
	require.Equal(t, 200, w.Code)
	var log struct {
		Completed bool `json:"completed"`
		IsJoker   bool `json:"isJoker"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &log))
	assert.True(t, log.Completed)

	w, env = doJSON(t, r, "POST", "/api/habits/log", `{"userId":"`+userID+`","habitId":"`+habitID+`","date":"`+yesterday+`","isJoker":true}`)
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &log))
	assert.True(t, log.IsJoker)
	assert.True(t, log.Completed)

	// The flat map and first-log date come back with the logs.
	w, env = doJSON(t, r, "GET", "/api/habits/log?userId="+userID, "")
	require.Equal(t, 200, w.Code)
	logsMap, ok := env.Meta["logsMap"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, logsMap, habitID+"_"+today)
	assert.Equal(t, yesterday, env.Meta["firstLogDate"])

	// Over a 3-day custom window: the joker day drops out, leaving 1/2.
	w, env = doJSON(t, r, "GET", "/api/stats?userId="+userID+"&period=custom&startDate="+windowStart+"&endDate="+today, "")
	require.Equal(t, 200, w.Code)
	var result struct {
		Categories []struct {
			Stats stats.Result `json:"stats"`
		} `json:"categories"`
		Total stats.Result `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Len(t, result.Categories, 1)
	assert.Equal(t, stats.Result{Completed: 1, Total: 2, Percentage: 50}, result.Total)

	w, _ = doJSON(t, r, "GET", "/api/stats?userId="+userID+"&period=fortnight", "")
	assert.Equal(t, 400, w.Code)

	// Jokers quota: the default single weekly joker may already be spent,
	// depending on whether yesterday falls in the current week.
	w, env = doJSON(t, r, "GET", "/api/jokers?userId="+userID, "")
	require.Equal(t, 200, w.Code)
	var status struct {
		JokerCount      int `json:"jokerCount"`
		JokersUsed      int `json:"jokersUsed"`
		JokersRemaining int `json:"jokersRemaining"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, 1, status.JokerCount)
	assert.LessOrEqual(t, status.JokersUsed, 1)
	assert.GreaterOrEqual(t, status.JokersRemaining, 0)
}

func TestFriendWorkflowAndTrackerAccess(t *testing.T) {
	r := setupRouter(t)
	aliceID := registerUser(t, r, "alice")
	bobID := registerUser(t, r, "bob")
	carolID := registerUser(t, r, "carol")

	// No viewer: 401. Stranger: 403. Unknown owner: 404.
	w, _ := doJSON(t, r, "GET", "/api/friends/"+aliceID+"/tracker", "")
	assert.Equal(t, 401, w.Code)
	w, _ = doJSON(t, r, "GET", "/api/friends/"+aliceID+"/tracker?viewerId="+bobID, "")
	assert.Equal(t, 403, w.Code)
	w, _ = doJSON(t, r, "GET", "/api/friends/missing/tracker?viewerId="+bobID, "")
	assert.Equal(t, 404, w.Code)

	// The owner always sees their own tracker.
	w, _ = doJSON(t, r, "GET", "/api/friends/"+aliceID+"/tracker?viewerId="+aliceID, "")
	assert.Equal(t, 200, w.Code)

	// Bob asks, Alice accepts.
	w, env := doJSON(t, r, "POST", "/api/friends", `{"userId":"`+bobID+`","friendId":"`+aliceID+`"}`)
	require.Equal(t, 200, w.Code)
	var friendship struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &friendship))

	w, _ = doJSON(t, r, "POST", "/api/friends", `{"userId":"`+bobID+`","friendId":"`+aliceID+`"}`)
	assert.Equal(t, 409, w.Code)
	w, _ = doJSON(t, r, "POST", "/api/friends", `{"userId":"`+bobID+`","friendId":"`+bobID+`"}`)
	assert.Equal(t, 400, w.Code)

	w, env = doJSON(t, r, "GET", "/api/friends?userId="+aliceID+"&type=pending", "")
	require.Equal(t, 200, w.Code)
	var pending []struct {
		User struct {
			Pseudo string `json:"pseudo"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "bob", pending[0].User.Pseudo)

	w, _ = doJSON(t, r, "PUT", "/api/friends", `{"friendshipId":"`+friendship.ID+`","status":"accepted"}`)
	require.Equal(t, 200, w.Code)

	// Accepted friends can view the tracker and its payload carries the
	// week number.
	w, env = doJSON(t, r, "GET", "/api/friends/"+aliceID+"/tracker?viewerId="+bobID, "")
	require.Equal(t, 200, w.Code)
	var tracker struct {
		User struct {
			Pseudo string `json:"pseudo"`
		} `json:"user"`
		Categories []any          `json:"categories"`
		Logs       map[string]any `json:"logs"`
		Stats      struct {
			Total stats.Result `json:"total"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tracker))
	assert.Equal(t, "alice", tracker.User.Pseudo)
	assert.NotNil(t, tracker.Categories)
	assert.Contains(t, env.Meta, "weekNumber")

	// Carol searching for "ali" sees no relation; Bob sees the accepted one.
	w, env = doJSON(t, r, "GET", "/api/friends?userId="+carolID+"&type=search&search=ali", "")
	require.Equal(t, 200, w.Code)
	var results []struct {
		Pseudo         string  `json:"pseudo"`
		RelationStatus *string `json:"relationStatus"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 1)
	assert.Nil(t, results[0].RelationStatus)

	w, env = doJSON(t, r, "GET", "/api/friends?userId="+bobID, "")
	require.Equal(t, 200, w.Code)
	var friends []struct {
		Pseudo string `json:"pseudo"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, "alice", friends[0].Pseudo)

	// Removing the friendship closes the tracker again.
	w, _ = doJSON(t, r, "DELETE", "/api/friends", `{"userId":"`+aliceID+`","friendId":"`+bobID+`"}`)
	require.Equal(t, 200, w.Code)
	w, _ = doJSON(t, r, "GET", "/api/friends/"+aliceID+"/tracker?viewerId="+bobID, "")
	assert.Equal(t, 403, w.Code)
}
