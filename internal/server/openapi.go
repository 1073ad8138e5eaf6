package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/rsepme/rsemodule/internal/module"
	"github.com/rsepme/rsemodule/internal/store"
	"github.com/rsepme/rsemodule/internal/wizard"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind" enum:"validation,unauthorized,forbidden,not_found,conflict,remote"`
}

// HealthResponse maps each checked dependency to its status.
type HealthResponse map[string]HealthStatus

type HealthStatus struct {
	Status string `json:"status" enum:"ok,error"`
}

type sessionPath struct {
	SessionID string `path:"sessionID"`
}

type modulePath struct {
	Number int `path:"number"`
}

type resultsQuery struct {
	SessionID string `path:"sessionID"`
	Score     int    `query:"score"`
	YesCount  int    `query:"yesCount"`
}

type adminResultsQuery struct {
	Code string `query:"code" description:"Access code id, or all."`
	Q    string `query:"q" description:"Matches participant name, code or label."`
}

type actionRequest struct {
	SessionID string `path:"sessionID"`
	wizard.Action
}

type shareRequest struct {
	SessionID string `path:"sessionID"`
	ShareRequest
}

type codeUpdateRequest struct {
	ID string `path:"id"`
	AdminCodeUpdateRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "RSE Module API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the RSE discovery module and its admin console.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/access
	postAccess, _ := r.NewOperationContext(http.MethodPost, "/api/access")
	postAccess.SetSummary("Redeem access code")
	postAccess.SetDescription("Validates an access code, registers the participant and returns a participant token.")
	postAccess.AddReqStructure(RedeemRequest{})
	postAccess.AddRespStructure(RedeemResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAccess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAccess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postAccess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postAccess)

	// GET /api/modules/{number}
	getModule, _ := r.NewOperationContext(http.MethodGet, "/api/modules/{number}")
	getModule.SetSummary("Module content")
	getModule.SetDescription("Returns the content document of a module.")
	getModule.AddReqStructure(modulePath{})
	getModule.AddRespStructure(module.Document{}, openapi.WithHTTPStatus(http.StatusOK))
	getModule.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getModule)

	// POST /api/modules/{number}/sessions
	postSession, _ := r.NewOperationContext(http.MethodPost, "/api/modules/{number}/sessions")
	postSession.SetSummary("Start module")
	postSession.SetDescription("Starts or resumes the participant's session for a module. Requires Bearer token.")
	postSession.AddReqStructure(modulePath{})
	postSession.AddRespStructure(StartSessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postSession)

	// GET /api/sessions/{sessionID}/wizard
	getWizard, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/wizard")
	getWizard.SetSummary("Wizard view")
	getWizard.SetDescription("Returns the current wizard screen. Requires Bearer token.")
	getWizard.AddReqStructure(sessionPath{})
	getWizard.AddRespStructure(wizard.View{}, openapi.WithHTTPStatus(http.StatusOK))
	getWizard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	getWizard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getWizard)

	// POST /api/sessions/{sessionID}/wizard/actions
	postAction, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/wizard/actions")
	postAction.SetSummary("Wizard action")
	postAction.SetDescription("Records a response or moves the cursor. A refused next returns the unchanged view. Requires Bearer token.")
	postAction.AddReqStructure(actionRequest{})
	postAction.AddRespStructure(ActionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(postAction)

	// GET /api/sessions/{sessionID}/wizard/ws
	getWizardWS, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/wizard/ws")
	getWizardWS.SetSummary("Wizard websocket")
	getWizardWS.SetDescription("Upgrades to a WebSocket carrying wizard actions and views. Pass token as query parameter.")
	getWizardWS.AddReqStructure(sessionPath{})
	getWizardWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getWizardWS)

	// GET /api/sessions/{sessionID}/results
	getResults, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/results")
	getResults.SetSummary("Session results")
	getResults.SetDescription("Returns score and profile. Query parameters are used only while no score is recorded.")
	getResults.AddReqStructure(resultsQuery{})
	getResults.AddRespStructure(ResultsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getResults.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getResults)

	// POST /api/sessions/{sessionID}/share
	postShare, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/share")
	postShare.SetSummary("Share on WhatsApp")
	postShare.SetDescription("Logs the message and returns a WhatsApp link carrying it.")
	postShare.AddReqStructure(shareRequest{})
	postShare.AddRespStructure(ShareResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postShare.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postShare)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.SetDescription("Clears admin session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// POST /api/admin/users
	postUser, _ := r.NewOperationContext(http.MethodPost, "/api/admin/users")
	postUser.SetSummary("Create admin")
	postUser.SetDescription("Creates another admin account. Requires admin_session cookie.")
	postUser.AddReqStructure(AdminLoginRequest{})
	postUser.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postUser.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postUser.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postUser)

	// GET /api/admin/codes
	listCodes, _ := r.NewOperationContext(http.MethodGet, "/api/admin/codes")
	listCodes.SetSummary("List access codes")
	listCodes.SetDescription("Returns all access codes, newest first. Requires admin_session cookie.")
	listCodes.AddRespStructure([]store.AccessCode{}, openapi.WithHTTPStatus(http.StatusOK))
	listCodes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listCodes)

	// POST /api/admin/codes
	createCode, _ := r.NewOperationContext(http.MethodPost, "/api/admin/codes")
	createCode.SetSummary("Create access code")
	createCode.SetDescription("Generates a random 6-character code. Requires admin_session cookie.")
	createCode.AddReqStructure(AdminCodeRequest{})
	createCode.AddRespStructure(store.AccessCode{}, openapi.WithHTTPStatus(http.StatusCreated))
	createCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(createCode)

	// PATCH /api/admin/codes/{id}
	updateCode, _ := r.NewOperationContext(http.MethodPatch, "/api/admin/codes/{id}")
	updateCode.SetSummary("Toggle access code")
	updateCode.SetDescription("Activates or deactivates a code. Requires admin_session cookie.")
	updateCode.AddReqStructure(codeUpdateRequest{})
	updateCode.AddRespStructure(store.AccessCode{}, openapi.WithHTTPStatus(http.StatusOK))
	updateCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateCode)

	// GET /api/admin/results
	getAdminResults, _ := r.NewOperationContext(http.MethodGet, "/api/admin/results")
	getAdminResults.SetSummary("Completed sessions")
	getAdminResults.SetDescription("Returns completed sessions with profiles and per-code statistics. Requires admin_session cookie.")
	getAdminResults.AddReqStructure(adminResultsQuery{})
	getAdminResults.AddRespStructure(AdminResultsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getAdminResults)

	// GET /api/admin/results.csv
	getResultsCSV, _ := r.NewOperationContext(http.MethodGet, "/api/admin/results.csv")
	getResultsCSV.SetSummary("Export results")
	getResultsCSV.SetDescription("Same rows as /api/admin/results, as CSV. Requires admin_session cookie.")
	getResultsCSV.AddReqStructure(adminResultsQuery{})
	getResultsCSV.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/csv"))
	_ = r.AddOperation(getResultsCSV)

	// GET /api/admin/dashboard
	getDashboard, _ := r.NewOperationContext(http.MethodGet, "/api/admin/dashboard")
	getDashboard.SetSummary("Dashboard")
	getDashboard.SetDescription("Returns global counters and the 10 most recent sessions. Requires admin_session cookie.")
	getDashboard.AddRespStructure(AdminDashboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getDashboard)

	// GET /api/admin/settings/whatsapp
	getWhatsapp, _ := r.NewOperationContext(http.MethodGet, "/api/admin/settings/whatsapp")
	getWhatsapp.SetSummary("WhatsApp group link")
	getWhatsapp.AddRespStructure(WhatsappSetting{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getWhatsapp)

	// PUT /api/admin/settings/whatsapp
	putWhatsapp, _ := r.NewOperationContext(http.MethodPut, "/api/admin/settings/whatsapp")
	putWhatsapp.SetSummary("Set WhatsApp group link")
	putWhatsapp.SetDescription("An empty link clears the setting.")
	putWhatsapp.AddReqStructure(WhatsappSetting{})
	putWhatsapp.AddRespStructure(WhatsappSetting{}, openapi.WithHTTPStatus(http.StatusOK))
	putWhatsapp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(putWhatsapp)

	// GET /api/admin/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/admin/events")
	getEvents.SetSummary("SSE activity stream")
	getEvents.SetDescription("Server-Sent Events stream of participant activity. Requires admin_session cookie.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
