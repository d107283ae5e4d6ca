/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestSnapshotLifecycle(t *testing.T) {
	ph, err := InitProject(t.TempDir(), NewProject("Snapshots"))
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		text := fmt.Sprintf("<action>draft %d</action>", i)
		if err := SaveSnapshot(ctx, ph, text, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}

	latest, err := LatestSnapshot(ctx, ph)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if latest.Text != "<action>draft 4</action>" {
		t.Fatalf("latest = %q", latest.Text)
	}

	list, err := ListSnapshots(ctx, ph, 3)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(list) != 3 || list[0].Text != "<action>draft 4</action>" {
		t.Fatalf("list = %+v", list)
	}

	pruned, err := PruneSnapshots(ctx, ph, 2)
	if err != nil {
		t.Fatalf("PruneSnapshots: %v", err)
	}
	if pruned != 3 {
		t.Fatalf("pruned = %d, want 3", pruned)
	}
	list, err = ListSnapshots(ctx, ph, 10)
	if err != nil {
		t.Fatalf("ListSnapshots after prune: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("kept = %d, want 2", len(list))
	}
}

func TestLatestSnapshotEmpty(t *testing.T) {
	ph, err := InitProject(t.TempDir(), NewProject("None"))
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	s, err := LatestSnapshot(context.Background(), ph)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if s.Text != "" || !s.TS.IsZero() {
		t.Fatalf("expected zero snapshot, got %+v", s)
	}
}
