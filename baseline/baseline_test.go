package baseline_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	gomock "github.com/golang/mock/gomock"

	"github.com/cellwire/gologic/baseline"
)

var _ = Describe("Compare", func() {
	It("reports no diffs for identical snapshots", func() {
		a := baseline.Snapshot{Wires: map[string]string{"out": "1", "carry": "0"}}
		b := baseline.Snapshot{Wires: map[string]string{"out": "1", "carry": "0"}}
		Expect(baseline.Compare(a, b)).To(BeEmpty())
	})

	It("reports a diff for a wire whose recorded state changed", func() {
		a := baseline.Snapshot{Wires: map[string]string{"out": "1"}}
		b := baseline.Snapshot{Wires: map[string]string{"out": "0"}}
		diffs := baseline.Compare(a, b)
		Expect(diffs).To(ConsistOf(baseline.Diff{Wire: "out", Was: "1", Now: "0"}))
	})

	It("reports wires present only in the baseline", func() {
		a := baseline.Snapshot{Wires: map[string]string{"out": "1", "extra": "X"}}
		b := baseline.Snapshot{Wires: map[string]string{"out": "1"}}
		diffs := baseline.Compare(a, b)
		Expect(diffs).To(ConsistOf(baseline.Diff{Wire: "extra", Was: "X", Now: ""}))
	})

	It("reports wires present only in the current run", func() {
		a := baseline.Snapshot{Wires: map[string]string{"out": "1"}}
		b := baseline.Snapshot{Wires: map[string]string{"out": "1", "new": "Z"}}
		diffs := baseline.Compare(a, b)
		Expect(diffs).To(ConsistOf(baseline.Diff{Wire: "new", Was: "", Now: "Z"}))
	})
})

var _ = Describe("Store consumers", func() {
	var ctrl *gomock.Controller
	var store *MockStore

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		store = NewMockStore(ctrl)
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	It("compares a freshly saved snapshot against a loaded baseline", func() {
		ctx := context.Background()
		now := baseline.Snapshot{
			Name:      "smoke",
			CreatedAt: time.Now().UTC(),
			Wires:     map[string]string{"out": "1"},
		}
		approved := baseline.Snapshot{
			Name:  "smoke",
			Wires: map[string]string{"out": "0"},
		}

		store.EXPECT().Save(ctx, now).Return(nil)
		store.EXPECT().Load(ctx, "smoke").Return(approved, nil)

		Expect(store.Save(ctx, now)).To(Succeed())

		loaded, err := store.Load(ctx, "smoke")
		Expect(err).NotTo(HaveOccurred())

		diffs := baseline.Compare(loaded, now)
		Expect(diffs).To(ConsistOf(baseline.Diff{Wire: "out", Was: "0", Now: "1"}))
	})

	It("surfaces a Load error for a name with no recorded baseline", func() {
		ctx := context.Background()
		wantErr := errors.New("no baseline named ghost")
		store.EXPECT().Load(ctx, "ghost").Return(baseline.Snapshot{}, wantErr)

		_, err := store.Load(ctx, "ghost")
		Expect(err).To(MatchError(wantErr))
	})

	It("lists saved baseline names", func() {
		ctx := context.Background()
		store.EXPECT().List(ctx).Return([]string{"smoke", "regression-42"}, nil)

		names, err := store.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(Equal([]string{"smoke", "regression-42"}))
	})
})
