package ranking_test

import (
	"math"
	"slices"
	"testing"

	"github.com/okian/rankboard/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIndex_Scenarios(t *testing.T) {
	Convey("Given an index with a, b and c upserted in that order", t, func() {
		x := ranking.New(ranking.WithSeed(42))
		x.Upsert("a", 10)
		x.Upsert("b", 20)
		x.Upsert("c", 20)

		Convey("Then earlier arrival wins the tie at 20", func() {
			So(x.TopN(3), ShouldResemble, []ranking.Ranked{
				{Rank: 1, Name: "b", Score: 20},
				{Rank: 2, Name: "c", Score: 20},
				{Rank: 3, Name: "a", Score: 10},
			})
			So(x.Size(), ShouldEqual, 3)
		})

		Convey("When a is raised to 25", func() {
			x.Upsert("a", 25)

			Convey("Then a leads and b still precedes c", func() {
				So(x.TopN(3), ShouldResemble, []ranking.Ranked{
					{Rank: 1, Name: "a", Score: 25},
					{Rank: 2, Name: "b", Score: 20},
					{Rank: 3, Name: "c", Score: 20},
				})
				score, rank, ok := x.RankOf("a")
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 25)
				So(rank, ShouldEqual, 1)
			})

			Convey("And when b is removed", func() {
				So(x.Remove("b"), ShouldBeTrue)

				Convey("Then size drops and b is gone", func() {
					So(x.Size(), ShouldEqual, 2)
					_, _, ok := x.RankOf("b")
					So(ok, ShouldBeFalse)
					So(x.TopN(2), ShouldResemble, []ranking.Ranked{
						{Rank: 1, Name: "a", Score: 25},
						{Rank: 2, Name: "c", Score: 20},
					})
				})
			})
		})

		Convey("When an unknown name is removed", func() {
			removed := x.Remove("zzz")

			Convey("Then nothing changes", func() {
				So(removed, ShouldBeFalse)
				So(x.Size(), ShouldEqual, 3)
			})
		})

		Convey("When a name is removed twice", func() {
			first := x.Remove("c")
			second := x.Remove("c")

			Convey("Then only the first removal reports success", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
				So(x.Size(), ShouldEqual, 2)
			})
		})
	})
}

func TestIndex_TieBreakSurvivesUpdates(t *testing.T) {
	Convey("Given three entries tied at the same score", t, func() {
		x := ranking.New(ranking.WithSeed(7))
		x.Upsert("first", 5)
		x.Upsert("second", 5)
		x.Upsert("third", 5)

		Convey("When the first entry leaves the tie and comes back", func() {
			x.Upsert("first", 1)
			So(x.TopN(3)[2].Name, ShouldEqual, "first")
			x.Upsert("first", 5)

			Convey("Then it regains its original position", func() {
				names := []string{}
				for r := range x.Top(3) {
					names = append(names, r.Name)
				}
				So(names, ShouldResemble, []string{"first", "second", "third"})
			})
		})

		Convey("When an entry is removed and upserted again", func() {
			x.Remove("first")
			x.Upsert("first", 5)

			Convey("Then it is treated as a new arrival", func() {
				_, rank, ok := x.RankOf("first")
				So(ok, ShouldBeTrue)
				So(rank, ShouldEqual, 3)
			})
		})

		Convey("When an entry is upserted with its current score", func() {
			x.Upsert("second", 5)

			Convey("Then its position is unchanged", func() {
				_, rank, _ := x.RankOf("second")
				So(rank, ShouldEqual, 2)
				So(x.Size(), ShouldEqual, 3)
			})
		})
	})
}

func TestIndex_Top(t *testing.T) {
	Convey("Given an index with five entries", t, func() {
		x := ranking.New()
		for i, name := range []string{"e", "d", "c", "b", "a"} {
			x.Upsert(name, float64(i))
		}

		Convey("Then TopN is bounded by size", func() {
			So(x.TopN(0), ShouldBeEmpty)
			So(x.TopN(-1), ShouldBeEmpty)
			So(len(x.TopN(2)), ShouldEqual, 2)
			So(len(x.TopN(100)), ShouldEqual, 5)
		})

		Convey("Then the sequence restarts from the head on every iteration", func() {
			seq := x.Top(5)
			first := slices.Collect(seq)
			second := slices.Collect(seq)
			So(first, ShouldResemble, second)
			So(first[0].Name, ShouldEqual, "a")
		})

		Convey("Then breaking out of the sequence early is honoured", func() {
			count := 0
			for range x.Top(5) {
				count++
				if count == 2 {
					break
				}
			}
			So(count, ShouldEqual, 2)
		})
	})

	Convey("Given an empty index", t, func() {
		x := ranking.New()

		Convey("Then queries return nothing", func() {
			So(x.Size(), ShouldEqual, 0)
			So(x.TopN(10), ShouldBeEmpty)
			_, _, ok := x.RankOf("nobody")
			So(ok, ShouldBeFalse)
			_, ok = x.ByRank(1)
			So(ok, ShouldBeFalse)
			So(x.Level(), ShouldEqual, 1)
		})
	})
}

func TestIndex_RankAddressing(t *testing.T) {
	Convey("Given an index with scores 1..20", t, func() {
		x := ranking.New(ranking.WithSeed(3))
		for i := 1; i <= 20; i++ {
			x.Upsert(string(rune('a'+i-1)), float64(i))
		}

		Convey("Then ByRank resolves every rank", func() {
			for rank := 1; rank <= 20; rank++ {
				r, ok := x.ByRank(rank)
				So(ok, ShouldBeTrue)
				So(r.Rank, ShouldEqual, rank)
				So(r.Score, ShouldEqual, float64(21-rank))
			}
			_, ok := x.ByRank(0)
			So(ok, ShouldBeFalse)
			_, ok = x.ByRank(21)
			So(ok, ShouldBeFalse)
		})

		Convey("Then Range returns the inclusive window", func() {
			got := slices.Collect(x.Range(5, 8))
			So(len(got), ShouldEqual, 4)
			So(got[0], ShouldResemble, ranking.Ranked{Rank: 5, Name: "p", Score: 16})
			So(got[3].Rank, ShouldEqual, 8)
		})

		Convey("Then Range clamps out-of-bounds windows", func() {
			So(len(slices.Collect(x.Range(-3, 2))), ShouldEqual, 2)
			So(len(slices.Collect(x.Range(19, 50))), ShouldEqual, 2)
			So(slices.Collect(x.Range(10, 9)), ShouldBeEmpty)
			So(slices.Collect(x.Range(21, 30)), ShouldBeEmpty)
		})

		Convey("Then Levels lists every entry at the base level", func() {
			levels := x.Levels()
			So(len(levels), ShouldEqual, x.Level())
			base := levels[len(levels)-1]
			So(len(base), ShouldEqual, 20)
			for i, r := range base {
				So(r.Rank, ShouldEqual, i+1)
			}
		})
	})
}

func TestIndex_Panics(t *testing.T) {
	Convey("Given an index", t, func() {
		x := ranking.New()

		Convey("Then a NaN score is rejected", func() {
			So(func() { x.Upsert("n", math.NaN()) }, ShouldPanic)
			So(x.Size(), ShouldEqual, 0)
		})

		Convey("Then infinite scores are ordered normally", func() {
			x.Upsert("hi", math.Inf(1))
			x.Upsert("lo", math.Inf(-1))
			x.Upsert("mid", 0)
			top := x.TopN(3)
			So(top[0].Name, ShouldEqual, "hi")
			So(top[2].Name, ShouldEqual, "lo")
		})
	})
}

func TestIndex_Options(t *testing.T) {
	Convey("Given index options", t, func() {
		Convey("Then the level cap is applied", func() {
			So(ranking.New(ranking.WithMaxLevel(4)).MaxLevel(), ShouldEqual, 4)
		})

		Convey("Then out-of-range caps are ignored", func() {
			So(ranking.New(ranking.WithMaxLevel(0)).MaxLevel(), ShouldEqual, ranking.DefaultMaxLevel)
			So(ranking.New(ranking.WithMaxLevel(1000)).MaxLevel(), ShouldEqual, ranking.DefaultMaxLevel)
		})

		Convey("Then a level cap of one degrades to a sorted list", func() {
			x := ranking.New(ranking.WithMaxLevel(1))
			for i := 0; i < 50; i++ {
				x.Upsert(string(rune('A'+i)), float64(i%7))
			}
			So(x.Level(), ShouldEqual, 1)
			_, rank, ok := x.RankOf("A")
			So(ok, ShouldBeTrue)
			So(rank, ShouldBeGreaterThan, 1)
		})
	})
}
