// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/models"
	"github.com/danielhkuo/rate-my-teacher/testutil"
)

// TestFullRatingWorkflow tests the complete end-to-end workflow:
// 1. Admin creates a teacher
// 2. A user registers
// 3. The user and an anonymous visitor vote
// 4. The user edits their vote
// 5. A moderator removes the anonymous vote
// 6. Verify aggregate, points and badges
func TestFullRatingWorkflow(t *testing.T) {
	conn, svc, cfg := setupServices(t)
	authHandler := NewAuthHandler(svc, cfg)
	teachersHandler := NewTeachersHandler(svc, cfg)
	votingHandler := NewVotingHandler(svc, cfg)
	resultsHandler := NewResultsHandler(svc, cfg)
	adminHandler := NewAdminHandler(svc, cfg)

	admin := adminCaller(t, conn, "admin@example.com", capability.ManageTeachers, capability.ManageVotes)

	// Step 1: Create a teacher
	req := testutil.MakeRequest("POST", "/admin/teachers", models.CreateTeacherRequest{Name: "Katherine Johnson", Tags: []string{"math"}}, nil)
	w := httptest.NewRecorder()
	teachersHandler.CreateTeacher(w, as(req, admin))
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create teacher failed: %d - %s", w.Code, w.Body.String())
	}
	var teacher models.Teacher
	testutil.AssertJSON(t, w, &teacher)
	t.Logf("Step 1 - Created teacher: %s", teacher.ID)

	// Step 2: Register
	req = testutil.MakeRequest("POST", "/auth/register", models.RegisterRequest{Email: "student@example.com", Password: "long-enough"}, nil)
	w = httptest.NewRecorder()
	authHandler.Register(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 2 - Register failed: %d - %s", w.Code, w.Body.String())
	}
	var registered models.AuthResponse
	testutil.AssertJSON(t, w, &registered)
	user, err := svc.Resolver.ResolveToken(t.Context(), registered.Token)
	if err != nil {
		t.Fatalf("Step 2 - Token does not resolve: %v", err)
	}
	t.Logf("Step 2 - Registered account: %s", user.AccountID())

	// Step 3: Two votes
	anon := anonCaller(t)
	var anonVoteID, userVoteID string
	for _, v := range []struct {
		caller *identity.Identity
		rating int
		id     *string
	}{
		{caller: user, rating: 5, id: &userVoteID},
		{caller: anon, rating: 1, id: &anonVoteID},
	} {
		req = testutil.MakeRequest("POST", "/teachers/"+teacher.ID+"/votes", models.SubmitVoteRequest{Rating: v.rating}, nil)
		req.SetPathValue("id", teacher.ID)
		w = httptest.NewRecorder()
		votingHandler.SubmitVote(w, as(req, v.caller))
		if w.Code != http.StatusOK {
			t.Fatalf("Step 3 - Vote failed: %d - %s", w.Code, w.Body.String())
		}
		var resp models.SubmitVoteResponse
		testutil.AssertJSON(t, w, &resp)
		*v.id = resp.Vote.ID
	}
	t.Log("Step 3 - Submitted 2 votes")

	// Step 4: Edit the user's vote
	req = testutil.MakeRequest("PUT", "/votes/"+userVoteID, models.UpdateVoteRequest{Rating: 4, Comment: "tough but fair"}, nil)
	req.SetPathValue("voteId", userVoteID)
	w = httptest.NewRecorder()
	votingHandler.UpdateVote(w, as(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 4 - Update failed: %d - %s", w.Code, w.Body.String())
	}
	t.Log("Step 4 - Updated vote")

	// Step 5: Moderator removes the anonymous vote
	req = testutil.MakeRequest("DELETE", "/admin/votes/"+anonVoteID, nil, nil)
	req.SetPathValue("voteId", anonVoteID)
	w = httptest.NewRecorder()
	adminHandler.DeleteVote(w, as(req, admin))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 5 - Delete failed: %d - %s", w.Code, w.Body.String())
	}
	t.Log("Step 5 - Removed anonymous vote")

	// Step 6: Verify
	req = testutil.MakeRequest("GET", "/teachers/"+teacher.ID+"/aggregate", nil, nil)
	req.SetPathValue("id", teacher.ID)
	w = httptest.NewRecorder()
	resultsHandler.GetAggregate(w, req)
	var view models.AggregateView
	testutil.AssertJSON(t, w, &view)
	if view.RatingCount != 1 || *view.AverageRating != 4 {
		t.Errorf("Step 6 - Unexpected aggregate: %+v", view)
	}

	w = httptest.NewRecorder()
	authHandler.Me(w, as(testutil.MakeRequest("GET", "/me", nil, nil), user))
	var me models.MeResponse
	testutil.AssertJSON(t, w, &me)
	if me.Balance != 5 {
		t.Errorf("Step 6 - Expected balance 5, got %d", me.Balance)
	}
	if len(me.Badges) != 1 || me.Badges[0].BadgeType != models.BadgeVoter || me.Badges[0].Level != 1 {
		t.Errorf("Step 6 - Expected voter level 1 badge, got %+v", me.Badges)
	}
	t.Log("Step 6 - Verified aggregate, points and badges")
}
