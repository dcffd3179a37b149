package services

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"ar_hunt/utils"
	"ar_hunt/utils/logging"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizService struct {
	db       *gorm.DB
	sessions auth.SessionProvider
}

func (s *QuizService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.sessions.AuthMiddleware()...)

	r.Group(func(r chi.Router) {
		r.Use(auth.OrganizerOnly)

		r.Post("/create", s.Create)
		r.Post("/edit", s.Edit)
		r.Post("/delete", s.Delete)
	})

	r.Get("/fetch", s.Fetch)
	r.Post("/fetchByEvent", s.FetchByEvent)

	return r
}

type quizRequest struct {
	Id      string `json:"id"`
	EventId string `json:"eventID"`
	AssetId string `json:"assetID"`

	Question string `json:"question"`
	Option1  string `json:"option1"`
	Option2  string `json:"option2"`
	Option3  string `json:"option3"`
	Option4  string `json:"option4"`
	// Comma separated alternative to option1..option4.
	Options string `json:"options"`

	Answer  json.Number `json:"answer"`
	Points  json.Number `json:"points"`
	Visible bool        `json:"visible"`
}

type quizContent struct {
	question string
	options  [4]string
	answer   int
	points   int
}

// numberField accepts any integral json number, including forms like 10.0 or
// 1e1 that some clients emit for whole values.
func numberField(n json.Number) (int, bool) {
	if n == "" {
		return 0, false
	}
	if v, err := n.Int64(); err == nil {
		return int(v), true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func (params *quizRequest) content() (quizContent, error) {
	options := []string{params.Option1, params.Option2, params.Option3, params.Option4}
	if params.Options != "" {
		options = utils.SplitCommaList(params.Options)
	}

	answer, ok := numberField(params.Answer)
	if !ok {
		return quizContent{}, CodedError(ErrMissingInformation, http.StatusOK)
	}
	points, ok := numberField(params.Points)
	if !ok {
		return quizContent{}, CodedError(ErrMissingInformation, http.StatusOK)
	}

	return newQuizContent(params.Question, options, answer, points)
}

func newQuizContent(question string, options []string, answer, points int) (quizContent, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return quizContent{}, CodedError(ErrMissingInformation, http.StatusOK)
	}
	if len(options) > 4 {
		return quizContent{}, CodedError(errors.New("A quiz can have at most 4 options"), http.StatusOK)
	}

	var content quizContent
	content.question = question
	nonEmpty := 0
	for i, option := range options {
		content.options[i] = strings.TrimSpace(option)
		if content.options[i] != "" {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return quizContent{}, CodedError(errors.New("A quiz needs at least 2 options"), http.StatusOK)
	}

	if answer < 1 || answer > 4 || content.options[answer-1] == "" {
		return quizContent{}, CodedError(errors.New("Answer must reference a non-empty option"), http.StatusOK)
	}
	content.answer = answer

	if points <= 0 {
		return quizContent{}, CodedError(errors.New("Points must be positive"), http.StatusOK)
	}
	content.points = points

	return content, nil
}

func (c quizContent) apply(quiz *schema.Quiz) {
	quiz.Question = c.question
	quiz.Option1, quiz.Option2, quiz.Option3, quiz.Option4 = c.options[0], c.options[1], c.options[2], c.options[3]
	quiz.Answer = c.answer
	quiz.Points = c.points
}

func createQuiz(txn *gorm.DB, quiz schema.Quiz) error {
	asset, err := loadAsset(txn, quiz.AssetId)
	if err != nil {
		return err
	}
	if asset.EventId != quiz.EventId {
		return CodedError(errors.New("Asset does not belong to event"), http.StatusOK)
	}

	result := txn.Create(&quiz)
	if result.Error != nil {
		slog.Error("sql error creating quiz", "error", result.Error)
		return dbError()
	}

	return appendLog(txn, quiz.CreatedBy, quiz.EventId, quiz.Id.String(), fmt.Sprintf("Create Quiz %v", quiz.Id))
}

func (s *QuizService) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params quizRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	eventId, err := parseId(params.EventId)
	if err != nil {
		writeError(w, err)
		return
	}
	assetId, err := parseId(params.AssetId)
	if err != nil {
		writeError(w, err)
		return
	}

	content, err := params.content()
	if err != nil {
		writeError(w, err)
		return
	}

	quiz := schema.Quiz{
		Id:        uuid.New(),
		EventId:   eventId,
		AssetId:   assetId,
		Visible:   params.Visible,
		CreatedBy: session.Email,
	}
	content.apply(&quiz)

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := loadModifiableEvent(txn, eventId, session); err != nil {
			return err
		}
		return createQuiz(txn, quiz)
	})

	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("created quiz", "code", logging.QUIZ_OP, "quiz_id", quiz.Id, "asset_id", assetId)

	utils.WriteJsonResponse(w, quiz)
}

func (s *QuizService) Edit(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params quizRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	quizId, err := parseId(params.Id)
	if err != nil {
		writeError(w, err)
		return
	}

	content, err := params.content()
	if err != nil {
		writeError(w, err)
		return
	}

	var quiz schema.Quiz
	err = s.db.Transaction(func(txn *gorm.DB) error {
		quiz, err = loadQuiz(txn, quizId)
		if err != nil {
			return err
		}
		if !auth.CanModify(quiz.CreatedBy, session) {
			return CodedError(errors.New("Only the creator can edit this quiz"), http.StatusForbidden)
		}

		content.apply(&quiz)
		quiz.Visible = params.Visible

		if err := appendLog(txn, session.Email, quiz.EventId, quiz.Id.String(), fmt.Sprintf("Edit Quiz %v", quiz.Id)); err != nil {
			return err
		}

		result := txn.Save(&quiz)
		if result.Error != nil {
			slog.Error("sql error updating quiz", "quiz_id", quiz.Id, "error", result.Error)
			return dbError()
		}
		return nil
	})

	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, quiz)
}

func (s *QuizService) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params idRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	quizId, err := parseId(params.Id)
	if err != nil {
		writeError(w, err)
		return
	}

	del := deletion{actor: session.Email}
	err = s.db.Transaction(func(txn *gorm.DB) error {
		quiz, err := loadQuiz(txn, quizId)
		if err != nil {
			return err
		}
		if !auth.CanModify(quiz.CreatedBy, session) {
			return CodedError(errors.New("Only the creator can delete this quiz"), http.StatusForbidden)
		}
		return del.quiz(txn, quiz)
	})

	if err != nil {
		writeError(w, err)
		return
	}

	del.committed(nil)

	utils.WriteSuccess(w, fmt.Sprintf("Successfully deleted quiz %v", quizId))
}

type quizInfo struct {
	schema.Quiz
	EventName string `json:"eventName"`
	IsVisible string `json:"isVisible"`
}

func visibleLabel(visible bool) string {
	if visible {
		return "Yes"
	}
	return "No"
}

func listQuizInfo(db *gorm.DB, eventIds []uuid.UUID) ([]quizInfo, error) {
	infos := make([]quizInfo, 0)
	if len(eventIds) == 0 {
		return infos, nil
	}

	var events []schema.Event
	result := db.Where("id IN ?", eventIds).Find(&events)
	if result.Error != nil {
		slog.Error("sql error listing events for quizzes", "error", result.Error)
		return nil, dbError()
	}
	names := make(map[uuid.UUID]string, len(events))
	for _, event := range events {
		names[event.Id] = event.Name
	}

	var quizzes []schema.Quiz
	result = db.Where("event_id IN ?", eventIds).Order("created_at asc").Find(&quizzes)
	if result.Error != nil {
		slog.Error("sql error listing quizzes", "error", result.Error)
		return nil, dbError()
	}

	for _, quiz := range quizzes {
		infos = append(infos, quizInfo{Quiz: quiz, EventName: names[quiz.EventId], IsVisible: visibleLabel(quiz.Visible)})
	}
	return infos, nil
}

func (s *QuizService) Fetch(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	eventIds, err := auth.ViewableEventIds(session, s.db)
	if err != nil {
		writeError(w, dbError())
		return
	}

	infos, err := listQuizInfo(s.db, eventIds)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, infos)
}

func (s *QuizService) FetchByEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params eventIdRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	eventId, err := parseId(params.EventId)
	if err != nil {
		writeError(w, CodedError(errors.New("No event ID provided"), http.StatusOK))
		return
	}

	if _, err := loadViewableEvent(s.db, eventId, session); err != nil {
		writeError(w, err)
		return
	}

	infos, err := listQuizInfo(s.db, []uuid.UUID{eventId})
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, infos)
}
