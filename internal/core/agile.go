package core

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/trackhub/trackhub/internal/telemetry"
	"github.com/trackhub/trackhub/internal/youtrack"
)

const (
	boardFields  = "id,name,projects(id,name,shortName),sprints(id,name,archived)"
	sprintFields = "id,name,goal,start,finish,archived"
)

// ListBoards returns agile boards. With an enforced project configured only
// boards associated with that project are returned.
func (s *Service) ListBoards(ctx context.Context) ([]youtrack.AgileBoard, error) {
	params := url.Values{
		"fields": {boardFields},
		"$top":   {strconv.Itoa(maxPageSize)},
	}
	var boards []youtrack.AgileBoard
	if err := s.backend.Get(ctx, "agiles", params, &boards); err != nil {
		return nil, err
	}

	enforced := s.resolver.Enforced()
	if enforced == "" {
		return boards, nil
	}
	scoped := boards[:0]
	for _, b := range boards {
		if boardInProject(b, enforced) {
			scoped = append(scoped, b)
		}
	}
	return scoped, nil
}

func (s *Service) GetBoard(ctx context.Context, boardID string) (*youtrack.AgileBoard, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return nil, &ValidationError{Field: "boardId", Reason: "is required"}
	}
	var board youtrack.AgileBoard
	params := url.Values{"fields": {boardFields}}
	if err := s.backend.Get(ctx, "agiles/"+url.PathEscape(boardID), params, &board); err != nil {
		return nil, err
	}
	if err := s.checkBoardScope(board); err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *Service) BoardSprints(ctx context.Context, boardID string) ([]youtrack.Sprint, error) {
	// Fetch the board first so an out-of-scope board never leaks its sprints.
	if _, err := s.GetBoard(ctx, boardID); err != nil {
		return nil, err
	}
	params := url.Values{
		"fields": {sprintFields},
		"$top":   {strconv.Itoa(maxPageSize)},
	}
	var sprints []youtrack.Sprint
	if err := s.backend.Get(ctx, "agiles/"+url.PathEscape(strings.TrimSpace(boardID))+"/sprints", params, &sprints); err != nil {
		return nil, err
	}
	return sprints, nil
}

func (s *Service) GetSprint(ctx context.Context, boardID, sprintID string) (*youtrack.Sprint, error) {
	sprintID = strings.TrimSpace(sprintID)
	if sprintID == "" {
		return nil, &ValidationError{Field: "sprintId", Reason: "is required"}
	}
	if _, err := s.GetBoard(ctx, boardID); err != nil {
		return nil, err
	}
	var sprint youtrack.Sprint
	params := url.Values{"fields": {sprintFields}}
	path := "agiles/" + url.PathEscape(strings.TrimSpace(boardID)) + "/sprints/" + url.PathEscape(sprintID)
	if err := s.backend.Get(ctx, path, params, &sprint); err != nil {
		return nil, err
	}
	return &sprint, nil
}

// checkBoardScope rejects boards tied exclusively to other projects when a
// scope is enforced. Boards that report no project association pass through.
func (s *Service) checkBoardScope(board youtrack.AgileBoard) error {
	enforced := s.resolver.Enforced()
	if enforced == "" || len(board.Projects) == 0 || boardInProject(board, enforced) {
		return nil
	}
	telemetry.IncScopeViolation()
	s.logger.Warn("board outside enforced scope requested",
		"board", board.ID,
		"enforced", enforced)
	return &ScopeViolationError{Provided: board.Projects[0].ShortName, Enforced: enforced}
}

func boardInProject(board youtrack.AgileBoard, project string) bool {
	for _, p := range board.Projects {
		if strings.EqualFold(p.ID, project) || strings.EqualFold(p.ShortName, project) {
			return true
		}
	}
	return false
}
