package jet

// ToComplex promotes a real Jet into the promoted complex environment.
func ToComplex(j *Jet[float64]) *Jet[complex128] {
	env := PromoteEnvironment(j.env)
	out := &Jet[complex128]{env: env, terms: make([]Term[complex128], len(j.terms))}
	for i, t := range j.terms {
		out.terms[i] = Term[complex128]{Index: t.Index, Weight: t.Weight, Value: complex(t.Value, 0)}
	}
	return out
}

// RealPart keeps the real part of every coefficient. The result lives in
// RealEnvironment(j.Env()).
func RealPart(j *Jet[complex128]) (*Jet[float64], error) {
	env, err := RealEnvironment(j.env)
	if err != nil {
		return nil, err
	}
	out := &Jet[float64]{env: env, terms: make([]Term[float64], 0, len(j.terms))}
	for _, t := range j.terms {
		if v := real(t.Value); v != 0 {
			out.terms = append(out.terms, Term[float64]{Index: t.Index, Weight: t.Weight, Value: v})
		}
	}
	return out, nil
}

// ImagPart keeps the imaginary part of every coefficient.
func ImagPart(j *Jet[complex128]) (*Jet[float64], error) {
	env, err := RealEnvironment(j.env)
	if err != nil {
		return nil, err
	}
	out := &Jet[float64]{env: env, terms: make([]Term[float64], 0, len(j.terms))}
	for _, t := range j.terms {
		if v := imag(t.Value); v != 0 {
			out.terms = append(out.terms, Term[float64]{Index: t.Index, Weight: t.Weight, Value: v})
		}
	}
	return out, nil
}

// Jet1ToComplex promotes a real Jet1.
func Jet1ToComplex(j *Jet1[float64]) *Jet1[complex128] {
	out := NewJet1(PromoteEnvironment(j.env), complex(j.value, 0))
	for i, g := range j.grad {
		out.grad[i] = complex(g, 0)
	}
	return out
}

// Jet1RealPart keeps the real part of the value and gradient.
func Jet1RealPart(j *Jet1[complex128]) (*Jet1[float64], error) {
	env, err := RealEnvironment(j.env)
	if err != nil {
		return nil, err
	}
	out := NewJet1(env, real(j.value))
	for i, g := range j.grad {
		out.grad[i] = real(g)
	}
	return out, nil
}
