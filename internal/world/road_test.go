package world_test

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadroute/editor/internal/world"
)

func TestRoadSamples_exactMultiple(t *testing.T) {
	r := world.Road{End: world.Point{Lat: 20}}

	got := slices.Collect(r.Samples(10))

	assert.Equal(t, []world.Point{{Lat: 0}, {Lat: 10}, {Lat: 20}}, got)
}

func TestRoadSamples_remainderEndsOnEndPoint(t *testing.T) {
	r := world.Road{Start: world.Point{Lat: 1, Lon: 1}, End: world.Point{Lat: 1, Lon: 26}}

	got := slices.Collect(r.Samples(10))

	require.Len(t, got, 4)
	assert.Equal(t, world.Point{Lat: 1, Lon: 1}, got[0])
	assert.InDelta(t, 11, got[1].Lon, 1e-9)
	assert.InDelta(t, 21, got[2].Lon, 1e-9)
	assert.Equal(t, r.End, got[3])
}

func TestRoadSamples_diagonalSpacing(t *testing.T) {
	r := world.Road{End: world.Point{Lat: 30, Lon: 40}} // length 50

	got := slices.Collect(r.Samples(10))

	require.Len(t, got, 6)
	for i := 1; i < len(got); i++ {
		assert.InDelta(t, 10, got[i-1].Distance(got[i]), 1e-9)
	}
}

func TestRoadSamples_degenerate(t *testing.T) {
	p := world.Point{Lat: 3, Lon: 4}
	zero := world.Road{Start: p, End: p}
	assert.Equal(t, []world.Point{p}, slices.Collect(zero.Samples(10)))

	r := world.Road{End: world.Point{Lat: 5}}
	assert.Equal(t, []world.Point{{}, {Lat: 5}}, slices.Collect(r.Samples(0)))
}

func TestRoadSamples_nonFiniteLength(t *testing.T) {
	inf := world.Road{End: world.Point{Lat: math.Inf(1)}}
	assert.Equal(t, []world.Point{{}}, slices.Collect(inf.Samples(10)))

	nan := world.Road{Start: world.Point{Lon: math.NaN()}}
	assert.Len(t, slices.Collect(nan.Samples(10)), 1)
}

func TestRoadSamples_restartableAndStoppable(t *testing.T) {
	r := world.Road{End: world.Point{Lat: 100}}
	seq := r.Samples(10)

	assert.Equal(t, slices.Collect(seq), slices.Collect(seq))

	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestRoadLength(t *testing.T) {
	r := world.Road{Start: world.Point{Lat: 1, Lon: 1}, End: world.Point{Lat: 4, Lon: 5}}
	assert.InDelta(t, 5, r.Length(), 1e-12)
}

func TestParseSurface(t *testing.T) {
	assert.Equal(t, world.SurfaceAsphalt, world.ParseSurface("asphalt"))
	assert.Equal(t, world.SurfaceGravel, world.ParseSurface(" Gravel "))
	assert.Equal(t, world.SurfaceOther, world.ParseSurface("cobblestone"))
	for _, s := range world.Surfaces {
		assert.Equal(t, s, world.ParseSurface(s.String()))
	}
}

func TestParseKind(t *testing.T) {
	k, err := world.ParseKind("Roads")
	require.NoError(t, err)
	assert.Equal(t, world.KindRoad, k)

	k, err = world.ParseKind("intersection")
	require.NoError(t, err)
	assert.Equal(t, world.KindIntersection, k)

	_, err = world.ParseKind("bridge")
	assert.Error(t, err)
}
