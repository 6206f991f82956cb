// Package nlp provides sentence segmentation and named-entity recognition.
//
// The Analyzer interface is what the rest of the module depends on: it turns
// free text into ordered sentences, each carrying the entities found inside
// it. HugotAnalyzer is the production implementation. It segments with the
// punkt-based English tokenizer from neurosnap/sentences and tags tokens with
// a token-classification ONNX model run through hugot's pure Go backend.
//
// Token labels come back in IOB form (B-PER, I-PER, O). MergeIOB folds them
// into contiguous single-type entities and MapLabel translates the model's
// CoNLL labels onto the PERSON/GPE/ORG style tag set used for matching.
package nlp
