// internal/tests/application_api_test.go
package tests

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/cityofhelsinki/benefit-backend/internal/calculator"
	"github.com/cityofhelsinki/benefit-backend/internal/config"
	"github.com/cityofhelsinki/benefit-backend/internal/i18n"
	"github.com/cityofhelsinki/benefit-backend/internal/models"
	"github.com/cityofhelsinki/benefit-backend/internal/repositories"
	"github.com/cityofhelsinki/benefit-backend/internal/router"
	"github.com/cityofhelsinki/benefit-backend/internal/services"
	"github.com/cityofhelsinki/benefit-backend/internal/utils"
)

const submitBody = `{
	"status": "received",
	"benefit_type": "salary_benefit",
	"start_date": "2021-01-01",
	"end_date": "2021-06-30",
	"employee": {"first_name": "Matti", "last_name": "Meikäläinen", "monthly_pay": "2000.00"},
	"pay_subsidies": [
		{"start_date": "2021-01-01", "end_date": "2021-06-30", "pay_subsidy_percent": 50}
	]
}`

type ApplicationAPITestSuite struct {
	suite.Suite
	repo           *repositories.MemoryApplicationRepository
	companies      *repositories.MemoryCompanyRepository
	company        models.Company
	router         *gin.Engine
	applicantToken string
	handlerToken   string
}

func (suite *ApplicationAPITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	require.NoError(suite.T(), i18n.Initialize())
}

func (suite *ApplicationAPITestSuite) SetupTest() {
	suite.repo = repositories.NewMemoryApplicationRepository()
	suite.companies = repositories.NewMemoryCompanyRepository()
	suite.company = suite.companies.Add(models.Company{
		BusinessID:      "0201256-6",
		Name:            "Oy Yritys Ab",
		CompanyForm:     "oy",
		CompanyFormCode: 16,
		City:            "Helsinki",
	})
	suite.router = suite.newRouter(false)

	companyID := suite.company.ID
	var err error
	suite.applicantToken, err = utils.GenerateJWT(uuid.New(), "Hakija", string(models.ActorRoleApplicant), &companyID, 1)
	require.NoError(suite.T(), err)
	suite.handlerToken, err = utils.GenerateJWT(uuid.New(), "Käsittelijä", string(models.ActorRoleHandler), nil, 1)
	require.NoError(suite.T(), err)
}

func (suite *ApplicationAPITestSuite) newRouter(mock bool) *gin.Engine {
	cfg := &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "api-test-secret", AccessTokenTTL: 1},
		Benefit:     config.BenefitConfig{MockFlag: mock, AssociationFormCodes: []int{29}},
		Export:      config.ExportConfig{Prefix: "ahjo"},
		RateLimit:   config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	applications := services.NewApplicationService(suite.repo, suite.companies, calculator.New(), nil, cfg.Benefit)
	return router.New(cfg, router.Dependencies{
		Applications: applications,
		Exporter:     services.NewExportServiceWithClient(suite.repo, nil, "benefit-exports", cfg.Export.Prefix),
	})
}

func (suite *ApplicationAPITestSuite) request(r *gin.Engine, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	}
	return w, response
}

func data(response map[string]interface{}) map[string]interface{} {
	d, _ := response["data"].(map[string]interface{})
	return d
}

func errorCode(response map[string]interface{}) string {
	e, _ := response["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func (suite *ApplicationAPITestSuite) createDraft() string {
	w, response := suite.request(suite.router, http.MethodPost, "/v1/applications", suite.applicantToken, `{"applicant_language": "sv"}`)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	return data(response)["id"].(string)
}

func (suite *ApplicationAPITestSuite) submit(id string) map[string]interface{} {
	w, response := suite.request(suite.router, http.MethodPut, "/v1/applications/"+id, suite.handlerToken, submitBody)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	return data(response)
}

func (suite *ApplicationAPITestSuite) TestHealth() {
	w, response := suite.request(suite.router, http.MethodGet, "/health", "", "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "healthy", response["status"])
}

func (suite *ApplicationAPITestSuite) TestApplicantCreatesDraft() {
	w, response := suite.request(suite.router, http.MethodPost, "/v1/applications", suite.applicantToken, `{}`)
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.True(suite.T(), response["success"].(bool))

	app := data(response)
	assert.Equal(suite.T(), "draft", app["status"])
	assert.Equal(suite.T(), "Oy Yritys Ab", app["company_name"])
	assert.NotContains(suite.T(), app, "calculation")
	assert.NotContains(suite.T(), app, "pay_subsidies")
	assert.NotContains(suite.T(), app, "archived")
}

func (suite *ApplicationAPITestSuite) TestHandlerSubmitsAndSeesCalculation() {
	id := suite.createDraft()
	app := suite.submit(id)

	assert.Equal(suite.T(), "received", app["status"])
	subsidies := app["pay_subsidies"].([]interface{})
	require.Len(suite.T(), subsidies, 1)
	assert.Equal(suite.T(), "100.00", subsidies[0].(map[string]interface{})["work_time_percent"])

	calculation := app["calculation"].(map[string]interface{})
	assert.Equal(suite.T(), "4800.00", calculation["calculated_benefit_amount"])
	assert.Len(suite.T(), calculation["rows"], 2)
	assert.Len(suite.T(), app["log_entries"], 1)

	// the applicant view of the same application hides the handler data
	w, response := suite.request(suite.router, http.MethodGet, "/v1/applications/"+id, suite.applicantToken, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.NotContains(suite.T(), data(response), "calculation")
	assert.NotContains(suite.T(), data(response), "pay_subsidies")
	assert.Equal(suite.T(), "received", data(response)["status"])
}

func (suite *ApplicationAPITestSuite) TestApplicantCannotEditReceivedApplication() {
	id := suite.createDraft()
	suite.submit(id)

	req, _ := http.NewRequest(http.MethodPut, "/v1/applications/"+id, bytes.NewBufferString(`{"company_contact_person_phone_number": "0401234567"}`))
	req.Header.Set("Authorization", "Bearer "+suite.applicantToken)
	req.Header.Set("Accept-Language", "sv-FI")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
	var response map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), "FORBIDDEN", errorCode(response))
	assert.Equal(suite.T(), i18n.T("sv", i18n.KeyApplicationNotEditable), response["error"].(map[string]interface{})["message"])
}

func (suite *ApplicationAPITestSuite) TestApplicantCannotWriteHandlerFields() {
	id := suite.createDraft()

	w, response := suite.request(suite.router, http.MethodPatch, "/v1/applications/"+id, suite.applicantToken, `{"archived": true}`)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
	assert.Equal(suite.T(), "FORBIDDEN", errorCode(response))
}

func (suite *ApplicationAPITestSuite) TestInvalidPaySubsidyIsReportedPerField() {
	id := suite.createDraft()

	w, response := suite.request(suite.router, http.MethodPut, "/v1/applications/"+id, suite.handlerToken, `{
		"pay_subsidies": [{"start_date": "2021-01-01", "end_date": "2020-01-01", "pay_subsidy_percent": 50}]
	}`)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", errorCode(response))

	details := response["error"].(map[string]interface{})["details"].([]interface{})
	require.NotEmpty(suite.T(), details)
	assert.Equal(suite.T(), "pay_subsidies[0].end_date", details[0].(map[string]interface{})["field"])
}

func (suite *ApplicationAPITestSuite) TestUnknownStatusIsBadRequest() {
	id := suite.createDraft()

	w, response := suite.request(suite.router, http.MethodPut, "/v1/applications/"+id, suite.handlerToken, `{"status": "approved"}`)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "INVALID_STATUS_TRANSITION", errorCode(response))
}

func (suite *ApplicationAPITestSuite) TestCalculationFailureIsBadRequest() {
	id := suite.createDraft()

	w, response := suite.request(suite.router, http.MethodPut, "/v1/applications/"+id, suite.handlerToken, `{"status": "received"}`)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "CALCULATION_ERROR", errorCode(response))

	_, response = suite.request(suite.router, http.MethodGet, "/v1/applications/"+id, suite.handlerToken, "")
	assert.Equal(suite.T(), "draft", data(response)["status"])
}

func (suite *ApplicationAPITestSuite) TestMissingApplication() {
	w, response := suite.request(suite.router, http.MethodGet, "/v1/applications/"+uuid.NewString(), suite.handlerToken, "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", errorCode(response))

	w, _ = suite.request(suite.router, http.MethodGet, "/v1/applications/not-a-uuid", suite.handlerToken, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *ApplicationAPITestSuite) TestUnauthenticatedRequests() {
	w, _ := suite.request(suite.router, http.MethodGet, "/v1/applications", "", "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w, _ = suite.request(suite.router, http.MethodGet, "/v1/users/me", "", "")
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w, _ = suite.request(suite.router, http.MethodGet, "/v1/applications", "garbage", "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *ApplicationAPITestSuite) TestMockModeServesHandlerView() {
	id := suite.createDraft()
	suite.submit(id)
	mock := suite.newRouter(true)

	w, response := suite.request(mock, http.MethodGet, "/v1/applications/"+id, "", "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), data(response), "calculation")

	w, response = suite.request(mock, http.MethodPut, "/v1/applications/"+id, "", `{"archived": true}`)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), true, data(response)["archived"])

	w, response = suite.request(mock, http.MethodGet, "/v1/users/me", "", "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), true, data(response)["is_mock"])
}

func (suite *ApplicationAPITestSuite) TestCurrentUser() {
	w, response := suite.request(suite.router, http.MethodGet, "/v1/users/me", suite.applicantToken, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "applicant", data(response)["role"])
	assert.Equal(suite.T(), suite.company.ID.String(), data(response)["company_id"])
}

func (suite *ApplicationAPITestSuite) TestListApplications() {
	suite.createDraft()
	suite.createDraft()

	w, response := suite.request(suite.router, http.MethodGet, "/v1/applications?limit=1", suite.applicantToken, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), response["data"], 1)
	pagination := response["meta"].(map[string]interface{})["pagination"].(map[string]interface{})
	assert.EqualValues(suite.T(), 2, pagination["total"])
	assert.Equal(suite.T(), "2", w.Header().Get("X-Total-Count"))

	w, _ = suite.request(suite.router, http.MethodGet, "/v1/applications?status=bogus", suite.handlerToken, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w, response = suite.request(suite.router, http.MethodGet, "/v1/handler/applications?status=draft", suite.handlerToken, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), response["data"], 2)
}

func (suite *ApplicationAPITestSuite) TestExportEndpoint() {
	w, _ := suite.request(suite.router, http.MethodPost, "/v1/handler/exports", suite.applicantToken, "")
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w, response := suite.request(suite.router, http.MethodPost, "/v1/handler/exports", suite.handlerToken, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.EqualValues(suite.T(), 0, data(response)["export"].(map[string]interface{})["applications"])

	id := suite.createDraft()
	suite.submit(id)
	w, _ = suite.request(suite.router, http.MethodPut, "/v1/applications/"+id, suite.handlerToken, `{"status": "accepted"}`)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w, response = suite.request(suite.router, http.MethodPost, "/v1/handler/exports", suite.handlerToken, "")
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.EqualValues(suite.T(), 1, data(response)["export"].(map[string]interface{})["applications"])
	assert.Len(suite.T(), suite.repo.Batches(), 1)
}

func TestApplicationAPISuite(t *testing.T) {
	suite.Run(t, new(ApplicationAPITestSuite))
}
