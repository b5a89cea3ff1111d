// Package scoring turns a sealed session and a bank snapshot into a Result.
// Everything here is pure: no clock, no I/O, same inputs give the same Result.
package scoring

import (
	"math"
	"time"

	"decihire/internal/model"
)

// Score computes the result of a session against a bank snapshot.
//
// Unanswered required questions earn 0 and stay in the denominator. Optional
// questions only count once answered. Skill scores follow the same rule per
// trait: a question counts for the most any of its choices credits the trait. Bank questions outside the session's
// snapshot and answers to ids missing from the bank are ignored.
func Score(session *model.Session, bank *model.Bank, cfg Config) *model.Result {
	result := &model.Result{
		SessionID:     session.ID,
		CandidateID:   session.CandidateID,
		CandidateName: session.CandidateName,
		Profile:       session.Profile,
		Subscores:     make(map[model.Category]model.CategoryScore),
		Breakdown:     make([]model.QuestionScore, 0, bank.Len()),
	}
	if session.SubmittedAt != nil {
		result.SubmittedAt = *session.SubmittedAt
	}

	var earned, possible float64
	var paces []model.Pace
	skills := bank.SkillsRequired()
	var totalElapsed int64

	for i := range bank.Questions {
		q := &bank.Questions[i]
		if len(session.QuestionIDs) > 0 && !session.HasQuestion(q.ID) {
			continue
		}
		line := model.QuestionScore{
			QuestionID: q.ID,
			Category:   q.Category,
			Weight:     q.Weight,
		}

		ans := session.AnswerFor(q.ID)
		if ans == nil && !q.Required {
			continue
		}

		sub := result.Subscores[q.Category]
		sub.Possible += q.Weight
		possible += q.Weight

		var chosen *model.Choice
		if ans != nil {
			chosen = q.Choice(ans.Choice)
		}
		for _, trait := range skills {
			top := q.MaxTrait(trait)
			if top <= 0 {
				continue
			}
			if result.SkillScores == nil {
				result.SkillScores = make(map[string]model.CategoryScore, len(skills))
			}
			ts := result.SkillScores[trait]
			ts.Possible += top
			if chosen != nil {
				ts.Earned += math.Min(math.Max(chosen.Traits[trait], 0), top)
			}
			result.SkillScores[trait] = ts
		}

		if ans != nil {
			credit := clamp01(ans.Scorable().Credit(q, cfg.Rubric))
			pace := Classify(ans.ElapsedMs, cfg.Latency)

			line.Answered = true
			line.Choice = ans.Choice
			line.Credit = credit
			line.Points = credit * q.Weight
			line.ElapsedMs = ans.ElapsedMs
			line.Pace = pace

			sub.Earned += line.Points
			earned += line.Points
			paces = append(paces, pace)
			totalElapsed += ans.ElapsedMs
		}

		result.Subscores[q.Category] = sub
		result.Breakdown = append(result.Breakdown, line)
	}

	for cat, sub := range result.Subscores {
		sub.Percent = percent(sub.Earned, sub.Possible)
		sub.Earned = round2(sub.Earned)
		sub.Possible = round2(sub.Possible)
		result.Subscores[cat] = sub
	}

	for trait, ts := range result.SkillScores {
		ts.Percent = percent(ts.Earned, ts.Possible)
		ts.Earned = round2(ts.Earned)
		ts.Possible = round2(ts.Possible)
		result.SkillScores[trait] = ts
	}

	result.TotalScore = percent(earned, possible)
	result.Behavior = summarize(paces, totalElapsed)
	if len(paces) > 0 {
		result.AvgLatencyMs = round2(float64(totalElapsed) / float64(len(paces)))
	}
	result.Classification = ClassifySession(paces, cfg.Latency)
	result.Passed = result.TotalScore >= cfg.PassThreshold

	return result
}

// Rescore recomputes a stored result's body while keeping its submission time
func Rescore(session *model.Session, bank *model.Bank, cfg Config, computedAt time.Time) *model.Result {
	r := Score(session, bank, cfg)
	r.ComputedAt = computedAt
	return r
}

func percent(earned, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	p := earned / possible * 100
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return round2(p)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
