package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/sonhodourado/secretaria/apps/api/echo"
	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/user"
	"github.com/sonhodourado/secretaria/tests"
)

func Test_settingsApi(t *testing.T) {
	app := setup(t)
	token := app.login(t, "admin", user.SectorAdmin)

	rec := app.serve(http.MethodGet, "/v1/settings/email", token)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"sender": "", "password_set": false}`)}, rec)

	tests := []httpTest{
		{
			name:     "not an email",
			body:     []byte(`{"sender": "secretaria", "password": "app-pwd"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing password",
			body:     []byte(`{"sender": "secretaria@escola.test"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password": "this field is required"}`),
		},
		{
			name:     "saved",
			body:     []byte(`{"sender": " Secretaria@Escola.test ", "password": "app-pwd"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"sender": "secretaria@escola.test", "password_set": true}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.serve(http.MethodPut, "/v1/settings/email", token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	rec = app.serve(http.MethodGet, "/v1/settings/email", token)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"sender": "secretaria@escola.test", "password_set": true}`)}, rec)
	assert.NotContains(t, rec.Body.String(), "app-pwd")
}

func Test_dashboardApi(t *testing.T) {
	app := setup(t)
	token := app.login(t, "professor", user.SectorTeacher)

	today := core.DateOf(testNow)
	teacher := testutil.CreateTeacher(t, app.db, "Carla")
	class := testutil.CreateClass(t, app.db, "1º Ano", teacher.ID)
	ana := testutil.CreateStudent(t, app.db, "Ana", class.ID, "", "")
	bia := testutil.CreateStudent(t, app.db, "Bia", class.ID, "", "")
	testutil.CreateCharge(t, app.db, ana.ID, "100.00", core.NewDate(2024, 1, 30), billing.StatusPending)
	testutil.CreateCharge(t, app.db, ana.ID, "50.25", today.AddDays(5), billing.StatusPending)
	testutil.CreateCharge(t, app.db, bia.ID, "70.00", core.NewDate(2024, 2, 10), billing.StatusPaid)

	rec := app.serve(http.MethodGet, "/v1/dashboard", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp DashboardResponse
	decode(t, rec, &resp)
	assert.EqualValues(t, 2, resp.ActiveStudents)
	assert.EqualValues(t, 1, resp.ActiveClasses)
	assert.EqualValues(t, 1, resp.ActiveTeachers)
	assert.True(t, decimal.RequireFromString("150.25").Equal(resp.PendingTotal), resp.PendingTotal.String())

	months := []string{"2023-10", "2023-11", "2023-12", "2024-01", "2024-02", "2024-03"}
	if assert.Len(t, resp.Delinquency, len(months)) {
		for i, mt := range resp.Delinquency {
			assert.Equal(t, months[i], mt.Month)
			want := decimal.Zero
			switch mt.Month {
			case "2024-01":
				want = decimal.NewFromInt(100)
			case "2024-03":
				want = decimal.RequireFromString("50.25")
			}
			assert.True(t, want.Equal(mt.Total), "%s: %s", mt.Month, mt.Total)
		}
	}

	// anonymous requests are refused
	rec = app.serve(http.MethodGet, "/v1/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
