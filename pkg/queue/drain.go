// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package queue

import (
	"context"
	"errors"

	"github.com/ggloop/playguard/pkg/session"

	"github.com/sirupsen/logrus"
)

// Drainer resends queued reports through a reporter on launch.
type Drainer struct {
	queue    *FileQueue
	reporter session.Reporter
}

// NewDrainer wires a drainer over the durable queue.
func NewDrainer(queue *FileQueue, reporter session.Reporter) *Drainer {
	return &Drainer{queue: queue, reporter: reporter}
}

// Result summarizes one drain pass.
type Result struct {
	Delivered int
	Dropped   int
	Remaining int
}

// Drain attempts delivery of every queued report. Acknowledged reports are
// removed; definitive rejections are dropped with a log line since resending
// can never succeed; transient failures keep the report queued for the next
// pass.
func (d *Drainer) Drain(ctx context.Context) (Result, error) {
	reports, err := d.queue.List()
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, report := range reports {
		if err := ctx.Err(); err != nil {
			res.Remaining = remaining(d.queue)
			return res, err
		}

		err := d.reporter.ReportEnd(ctx, report)
		switch {
		case err == nil:
			if err := d.queue.Remove(report.SessionID); err != nil {
				return res, err
			}
			res.Delivered++
			logrus.Infof("delivered queued report for session %s", report.SessionID)
		case isPermanent(err):
			if err := d.queue.Remove(report.SessionID); err != nil {
				return res, err
			}
			res.Dropped++
			logrus.Warnf("dropping queued report for session %s, ledger rejected it: %v", report.SessionID, err)
		default:
			res.Remaining++
			logrus.Warnf("keeping queued report for session %s after delivery failure: %v", report.SessionID, err)
		}
	}

	return res, nil
}

func isPermanent(err error) bool {
	var pe interface{ Permanent() bool }
	return errors.As(err, &pe) && pe.Permanent()
}

func remaining(q *FileQueue) int {
	n, err := q.Len()
	if err != nil {
		return 0
	}
	return n
}
