package mindgames_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/mindgames"
)

func TestSamplingTable(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p := mindgames.SamplingFor(mindgames.KindCodenames)
		gt.Equal(t, p.Temperature, float32(1.0))
		gt.Equal(t, p.TopP, float32(1.0))
		gt.Nil(t, p.TopK)
		gt.Nil(t, p.MinP)
	})

	t.Run("missing kind falls back to default entry", func(t *testing.T) {
		table := mindgames.SamplingTable{
			mindgames.KindDefault: {Temperature: 0.3, TopP: 0.5},
		}
		p := table.For(mindgames.KindColonelBlotto)
		gt.Equal(t, p.Temperature, float32(0.3))
		gt.Equal(t, p.TopP, float32(0.5))
	})

	t.Run("empty table uses built-in default", func(t *testing.T) {
		p := mindgames.SamplingTable{}.For(mindgames.KindThreePlayerIPD)
		gt.Equal(t, p.Temperature, float32(1.0))
	})
}
