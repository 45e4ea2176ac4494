package audio

// Resampler приводит сэмплы устройства к целевой частоте Whisper.
//
// Если частота устройства совпадает с целевой, сэмплы проходят без
// изменений. Если частота кратна целевой (48000 -> 16000), выполняется
// децимация: остаётся каждый N-й сэмпл, остальные отбрасываются.
// Антиалиасинговый фильтр не применяется - это осознанный компромисс
// задержка/CPU. Любая другая частота проходит без ресемплинга
// (известное ограничение, Session пишет об этом в лог).
type Resampler struct {
	ratio   int
	pending []float32
}

// NewResampler создаёт Resampler для пары частот устройство/цель.
func NewResampler(deviceRate, targetRate int) *Resampler {
	ratio := 1
	if deviceRate > targetRate && deviceRate%targetRate == 0 {
		ratio = deviceRate / targetRate
	}
	return &Resampler{ratio: ratio}
}

// Ratio возвращает коэффициент децимации (1 - без ресемплинга).
func (r *Resampler) Ratio() int {
	return r.ratio
}

// Process дописывает в dst сэмплы src, приведённые к целевой частоте.
// Обрабатываются только полные группы децимации, неполный остаток
// сохраняется до следующего вызова. Никакого I/O - функцию можно
// вызывать из цикла чтения аудио.
func (r *Resampler) Process(dst, src []float32) []float32 {
	if r.ratio == 1 {
		return append(dst, src...)
	}

	r.pending = append(r.pending, src...)

	groups := len(r.pending) / r.ratio
	for i := 0; i < groups; i++ {
		dst = append(dst, r.pending[i*r.ratio])
	}

	rest := copy(r.pending, r.pending[groups*r.ratio:])
	r.pending = r.pending[:rest]

	return dst
}

// Reset сбрасывает накопленный остаток.
func (r *Resampler) Reset() {
	r.pending = r.pending[:0]
}

// SampleFormat - числовой формат сэмплов, отданный устройством.
// Закрытый набор: всё остальное отклоняется при открытии стрима.
type SampleFormat int

const (
	FormatFloat32 SampleFormat = iota
	FormatInt16
	FormatInt32
)

// String возвращает имя формата (для логирования).
func (f SampleFormat) String() string {
	switch f {
	case FormatFloat32:
		return "float32"
	case FormatInt16:
		return "int16"
	case FormatInt32:
		return "int32"
	default:
		return "unknown"
	}
}

// int16ToFloat32 нормализует сэмплы int16 в диапазон [-1, 1).
func int16ToFloat32(dst []float32, src []int16) []float32 {
	for _, s := range src {
		dst = append(dst, float32(s)/32768)
	}
	return dst
}

// int32ToFloat32 нормализует сэмплы int32 в диапазон [-1, 1).
func int32ToFloat32(dst []float32, src []int32) []float32 {
	for _, s := range src {
		dst = append(dst, float32(float64(s)/2147483648))
	}
	return dst
}
