//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cwbudde/algo-studio/dsp/buffer"
	"github.com/cwbudde/algo-studio/dsp/core"
	"github.com/cwbudde/algo-studio/dsp/resample"
	"github.com/cwbudde/algo-studio/graph"
	"github.com/cwbudde/algo-studio/studio"
)

var (
	st     *studio.Studio
	engine *graph.Manager
	funcs  []js.Func
)

func main() {
	api := js.Global().Get("Object").New()
	api.Set("init", export(func(args []js.Value) any {
		sr := 48000.0
		if len(args) > 0 {
			sr = args[0].Float()
		}
		if st != nil {
			_ = st.Close()
		}
		m, err := graph.New(graph.WithProcessor(core.WithSampleRate(sr)))
		if err != nil {
			engine = graph.Disabled()
			st = studio.New(engine)
			return err.Error()
		}
		engine = m
		st = studio.New(engine)
		return js.Null()
	}))

	// addTrack(type, name, [Float32Array...], sampleRate) -> id
	api.Set("addTrack", export(func(args []js.Value) any {
		if st == nil || len(args) < 2 {
			return js.Null()
		}
		typ, ok := studio.ParseTrackType(args[0].String())
		if !ok {
			return js.Null()
		}
		var clip *buffer.Audio
		if len(args) >= 4 && args[2].Truthy() {
			clip = audioFromJS(args[2], args[3].Float())
		}
		if clip != nil && clip.SampleRate != engine.SampleRate() {
			r, err := resample.Audio(clip, engine.SampleRate())
			if err != nil {
				return js.Null()
			}
			clip = r
		}
		t, err := st.AddTrack(typ, args[1].String(), clip)
		if err != nil {
			return js.Null()
		}
		return t.ID
	}))

	api.Set("removeTrack", export(func(args []js.Value) any {
		if st == nil || len(args) < 1 {
			return false
		}
		return st.RemoveTrack(args[0].String())
	}))

	api.Set("setVolume", trackSetter(func(id string, v js.Value) error { return st.SetVolume(id, v.Float()) }))
	api.Set("setPan", trackSetter(func(id string, v js.Value) error { return st.SetPan(id, v.Float()) }))
	api.Set("setMute", trackSetter(func(id string, v js.Value) error { return st.SetMute(id, v.Bool()) }))
	api.Set("setSolo", trackSetter(func(id string, v js.Value) error { return st.SetSolo(id, v.Bool()) }))

	// setEQ(id, band, gainDB) with band "low", "mid" or "high".
	api.Set("setEQ", export(func(args []js.Value) any {
		if st == nil || len(args) < 3 {
			return js.Null()
		}
		b, ok := graph.ParseBand(args[1].String())
		if !ok {
			return "unknown band"
		}
		if err := st.SetEQ(args[0].String(), b, args[2].Float()); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	api.Set("setMaster", export(func(args []js.Value) any {
		if st != nil && len(args) > 0 {
			st.SetMasterGain(args[0].Float())
		}
		return js.Null()
	}))

	api.Set("transport", export(func(args []js.Value) any {
		if st == nil || len(args) < 1 {
			return js.Null()
		}
		switch args[0].String() {
		case "play":
			st.Play()
		case "pause":
			st.Pause()
		case "stop":
			st.Stop()
		case "cue":
			st.Cue()
		case "seek":
			if len(args) > 1 {
				st.SeekBy(args[1].Float())
			}
		}
		return st.Position()
	}))

	// render(frames) -> interleaved stereo Float32Array
	api.Set("render", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		n := args[0].Int()
		buf := make([]float64, 2*n)
		engine.RenderInterleaved(buf)
		arr := js.Global().Get("Float32Array").New(len(buf))
		for i, v := range buf {
			arr.SetIndex(i, v)
		}
		return arr
	}))

	api.Set("spectrum", export(func([]js.Value) any {
		if engine == nil || engine.Analyser() == nil {
			return js.Global().Get("Uint8Array").New(0)
		}
		a := engine.Analyser()
		data := make([]byte, a.FrequencyBinCount())
		data = a.ByteFrequencyData(data)
		arr := js.Global().Get("Uint8Array").New(len(data))
		js.CopyBytesToJS(arr, data)
		return arr
	}))

	api.Set("eqResponse", export(func(args []js.Value) any {
		if engine == nil || len(args) < 2 {
			return js.Global().Get("Float32Array").New(0)
		}
		c, ok := engine.Chain(args[0].String())
		freqs := args[1]
		arr := js.Global().Get("Float32Array").New(freqs.Length())
		if !ok {
			return arr
		}
		for i := 0; i < freqs.Length(); i++ {
			arr.SetIndex(i, c.EQResponseDB(freqs.Index(i).Float()))
		}
		return arr
	}))

	js.Global().Set("AlgoStudio", api)
	select {}
}

func trackSetter(set func(id string, v js.Value) error) js.Func {
	return export(func(args []js.Value) any {
		if st == nil || len(args) < 2 {
			return js.Null()
		}
		if err := set(args[0].String(), args[1]); err != nil {
			return err.Error()
		}
		return js.Null()
	})
}

func audioFromJS(channels js.Value, sampleRate float64) *buffer.Audio {
	n := channels.Length()
	if n == 0 {
		return nil
	}
	a := &buffer.Audio{SampleRate: sampleRate, Channels: make([][]float64, min(n, 2))}
	for c := range a.Channels {
		src := channels.Index(c)
		dst := make([]float64, src.Length())
		for i := range dst {
			dst[i] = src.Index(i).Float()
		}
		a.Channels[c] = dst
	}
	return a
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
