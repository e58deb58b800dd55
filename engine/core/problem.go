package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Problem captures the information returned in an error response.
type Problem struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
}

// NormalizeProblem ensures the provided problem includes canonical defaults.
func NormalizeProblem(problem *Problem) *Problem {
	if problem == nil {
		problem = &Problem{}
	}
	if problem.Status == 0 {
		problem.Status = http.StatusInternalServerError
	}
	if problem.Title == "" {
		problem.Title = http.StatusText(problem.Status)
	}
	if problem.Type == "" {
		problem.Type = "about:blank"
	}
	return problem
}

// BuildProblemBody assembles the serialized representation of the problem.
func BuildProblemBody(problem *Problem) map[string]any {
	body := map[string]any{
		"status": problem.Status,
		"error":  problem.Title,
	}
	if problem.Detail != "" {
		body["details"] = problem.Detail
	}
	if problem.Type != "" {
		body["type"] = problem.Type
	}
	if problem.Instance != "" {
		body["instance"] = problem.Instance
	}
	return body
}

// RespondProblem writes the problem envelope and aborts the request.
func RespondProblem(c *gin.Context, problem *Problem) {
	problem = NormalizeProblem(problem)
	if problem.Instance == "" && c.Request != nil && c.Request.URL != nil {
		problem.Instance = c.Request.URL.Path
	}
	c.AbortWithStatusJSON(problem.Status, BuildProblemBody(problem))
}
