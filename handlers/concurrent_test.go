// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/rate-my-teacher/models"
	"github.com/danielhkuo/rate-my-teacher/testutil"
)

// TestConcurrentDuplicateSubmissions verifies that simultaneous votes from
// one identity for one teacher produce exactly one stored vote
func TestConcurrentDuplicateSubmissions(t *testing.T) {
	conn, svc, cfg := setupServices(t)
	votingHandler := NewVotingHandler(svc, cfg)
	teacherID := testutil.CreateTestTeacher(t, conn, "Contested Teacher")
	caller := userCaller(t, conn, "racer@example.com")

	numAttempts := 10
	var successCount, duplicateCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/teachers/"+teacherID+"/votes", models.SubmitVoteRequest{Rating: rating}, nil)
			req.SetPathValue("id", teacherID)
			w := httptest.NewRecorder()

			votingHandler.SubmitVote(w, as(req, caller))

			switch w.Code {
			case http.StatusOK:
				successCount.Add(1)
			case http.StatusForbidden:
				duplicateCount.Add(1)
			}
		}(i%5 + 1)
	}

	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 successful submission, got %d", successCount.Load())
	}
	if duplicateCount.Load() != int32(numAttempts-1) {
		t.Errorf("Expected %d duplicate rejections, got %d", numAttempts-1, duplicateCount.Load())
	}
	if n := testutil.CountRows(t, conn, `SELECT COUNT(*) FROM vote WHERE teacher_id = $1`, teacherID); n != 1 {
		t.Errorf("Expected 1 vote in database, got %d", n)
	}
	if n := testutil.CountRows(t, conn, `SELECT COUNT(*) FROM points_transaction WHERE account_id = $1`, caller.AccountID()); n != 1 {
		t.Errorf("Expected 1 points transaction, got %d", n)
	}
}

// TestConcurrentDistinctVoters verifies that different identities vote
// in parallel without interfering
func TestConcurrentDistinctVoters(t *testing.T) {
	conn, svc, cfg := setupServices(t)
	votingHandler := NewVotingHandler(svc, cfg)
	teacherID := testutil.CreateTestTeacher(t, conn, "Popular Teacher")

	numVoters := 10
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		caller := anonCaller(t)
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/teachers/"+teacherID+"/votes", models.SubmitVoteRequest{Rating: 3}, nil)
			req.SetPathValue("id", teacherID)
			w := httptest.NewRecorder()

			votingHandler.SubmitVote(w, as(req, caller))

			if w.Code == http.StatusOK {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful submissions, got %d", numVoters, successCount.Load())
	}

	view, err := svc.Aggregates.Aggregate(t.Context(), teacherID)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if view.RatingCount != numVoters || view.Distribution["3"] != numVoters {
		t.Errorf("Unexpected aggregate: %+v", view)
	}
}
